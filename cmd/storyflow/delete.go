package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <story-id>",
	Short: "Delete a story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		if _, ok := sess.store.Get(args[0]); !ok {
			return fmt.Errorf("story %q not found", args[0])
		}
		sess.store.Remove(cmd.Context(), args[0])
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}
