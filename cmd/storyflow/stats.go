package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storyflow/internal/views"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show project aggregates",
	Long: `Stats shows the header aggregates over the whole collection: score
(points of DONE stories, ten per story without points), total item
count, and blocked count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		stats := views.Summarize(sess.store.Stories())
		if flagJSON {
			return printJSON(stats)
		}
		fmt.Printf("score:   %d\nitems:   %d\nblocked: %d\n", stats.Score, stats.Items, stats.Blocked)
		return nil
	},
}
