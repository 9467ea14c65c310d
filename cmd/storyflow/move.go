package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

var moveCmd = &cobra.Command{
	Use:   "move <story-id> <status>",
	Short: "Move a story to a status",
	Long: `Move changes a story's status. Every status is reachable from every
other; there is no transition graph.

Valid statuses: BACKLOG, TODO, IN_PROGRESS, BLOCKED, TESTING, DONE.

Example:
  storyflow move 0192f3a1-7c44-7f1e-a1b2-3c4d5e6f7a8b IN_PROGRESS`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := types.Status(strings.ToUpper(args[1]))
		if !types.ValidStatus(status) {
			return fmt.Errorf("unknown status %q (valid: BACKLOG, TODO, IN_PROGRESS, BLOCKED, TESTING, DONE)", args[1])
		}

		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		if _, ok := sess.store.Get(args[0]); !ok {
			return fmt.Errorf("story %q not found", args[0])
		}
		sess.store.Move(cmd.Context(), args[0], status)
		fmt.Printf("Moved %s to %s\n", args[0], status)
		return nil
	},
}
