package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var assignCmd = &cobra.Command{
	Use:   "assign <story-id> [user-id]",
	Short: "Assign a story to a user",
	Long: `Assign sets the story's assignee. Omitting the user ID clears the
assignment.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := ""
		if len(args) > 1 {
			userID = args[1]
		}

		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		if _, ok := sess.store.Get(args[0]); !ok {
			return fmt.Errorf("story %q not found", args[0])
		}
		sess.store.Assign(cmd.Context(), args[0], userID)

		if userID == "" {
			fmt.Printf("Cleared assignee on %s\n", args[0])
		} else {
			fmt.Printf("Assigned %s to %s\n", args[0], userID)
		}
		return nil
	},
}
