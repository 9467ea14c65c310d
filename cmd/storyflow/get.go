package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

var getCmd = &cobra.Command{
	Use:   "get <story-id>",
	Short: "Show one story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		story, ok := sess.store.Get(args[0])
		if !ok {
			return fmt.Errorf("%w: %q", types.ErrNotFound, args[0])
		}
		return printJSON(story)
	},
}
