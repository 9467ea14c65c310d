package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storyflow/internal/views"
)

var flagBacklogEpic string

var backlogCmd = &cobra.Command{
	Use:   "backlog",
	Short: "Show the backlog",
	Long: `Backlog lists BACKLOG-status stories in collection order. Board
stories are not shown and no priority sort is applied.

Example:
  storyflow backlog
  storyflow backlog --epic Engine`,
	RunE: runBacklog,
}

func init() {
	backlogCmd.Flags().StringVar(&flagBacklogEpic, "epic", "", "filter by exact epic label")
}

func runBacklog(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.close()

	stories := sess.store.Stories()
	backlog := views.Backlog(stories, flagBacklogEpic)
	numbers := views.Numbers(stories)

	if flagJSON {
		return printJSON(map[string]any{
			"stories": backlog,
			"chips":   views.BacklogChips(stories, flagBacklogEpic, cfg.DarkTheme),
			"numbers": numbers,
			"stats":   views.Summarize(stories),
		})
	}

	fmt.Printf("BACKLOG (%d)\n", len(backlog))
	for _, s := range backlog {
		printStoryLine(s, numbers[s.ID])
	}
	return nil
}
