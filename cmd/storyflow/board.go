package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storyflow/internal/views"
	"github.com/mesh-intelligence/storyflow/pkg/types"
)

var flagBoardEpic string

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the kanban board",
	Long: `Board shows the five-column kanban view: TO DO, IN PROGRESS, BLOCKED,
TESTING, DONE. Backlog stories are not shown. Columns sort by priority
with collection order preserved on ties.

Example:
  storyflow board
  storyflow board --epic Engine
  storyflow board --json`,
	RunE: runBoard,
}

func init() {
	boardCmd.Flags().StringVar(&flagBoardEpic, "epic", "", "filter by exact epic label")
}

func runBoard(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.close()

	stories := sess.store.Stories()
	columns := views.Board(stories, flagBoardEpic)
	numbers := views.Numbers(stories)
	stats := views.Summarize(stories)

	if flagJSON {
		return printJSON(map[string]any{
			"columns": columns,
			"chips":   views.BoardChips(stories, flagBoardEpic, cfg.DarkTheme),
			"numbers": numbers,
			"stats":   stats,
		})
	}

	fmt.Printf("%s  score %d  items %d  blocked %d\n\n",
		cfg.Project, stats.Score, stats.Items, stats.Blocked)
	for _, col := range columns {
		fmt.Printf("%s (%d)\n", col.Title, len(col.Stories))
		for _, s := range col.Stories {
			printStoryLine(s, numbers[s.ID])
		}
		fmt.Println()
	}
	return nil
}

// printStoryLine renders one story as a board row.
func printStoryLine(s types.Story, number int) {
	marker := " "
	if s.Type == types.TypeBug {
		marker = "!"
	}
	points := ""
	if s.Points > 0 {
		points = fmt.Sprintf(" %dpt", s.Points)
	}
	epic := ""
	if s.Epic != "" {
		epic = " [" + s.Epic + "]"
	}
	fmt.Printf("  #%d%s %-6s %s%s%s\n", number, marker, s.Priority, s.Title, points, epic)
}
