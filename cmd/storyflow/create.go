package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

var (
	flagCreateType     string
	flagCreateView     string
	flagCreatePriority string
	flagCreatePoints   int
	flagCreateEpic     string
	flagCreateDesc     string
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a story or bug",
	Long: `Create adds a new story. An omitted title gets the type's placeholder.
The view decides the starting status: board creations land in TO DO,
backlog creations in BACKLOG. Bugs start HIGH priority, stories MEDIUM.

Example:
  storyflow create "Implement ghost AI" --epic Engine --points 8
  storyflow create --type BUG --view board
  storyflow create "Polish menus" --priority LOW`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&flagCreateType, "type", "STORY", "story type: STORY or BUG")
	createCmd.Flags().StringVar(&flagCreateView, "view", "backlog", "creating view: board or backlog")
	createCmd.Flags().StringVar(&flagCreatePriority, "priority", "", "override priority: LOW, MEDIUM or HIGH")
	createCmd.Flags().IntVar(&flagCreatePoints, "points", 0, "story points (0 leaves points unset)")
	createCmd.Flags().StringVar(&flagCreateEpic, "epic", "", "epic label")
	createCmd.Flags().StringVar(&flagCreateDesc, "description", "", "story description")
}

func runCreate(cmd *cobra.Command, args []string) error {
	title := ""
	if len(args) > 0 {
		title = args[0]
	}

	typ := types.StoryType(strings.ToUpper(flagCreateType))
	if !types.ValidType(typ) {
		return fmt.Errorf("unknown type %q (valid: STORY, BUG)", flagCreateType)
	}

	view := types.ViewBacklog
	switch strings.ToLower(flagCreateView) {
	case "backlog":
	case "board":
		view = types.ViewBoard
	default:
		return fmt.Errorf("unknown view %q (valid: board, backlog)", flagCreateView)
	}

	story := types.NewStory(title, typ, view)
	if flagCreatePriority != "" {
		p := types.Priority(strings.ToUpper(flagCreatePriority))
		if !types.ValidPriority(p) {
			return fmt.Errorf("unknown priority %q (valid: LOW, MEDIUM, HIGH)", flagCreatePriority)
		}
		story.Priority = p
	}
	if flagCreatePoints > 0 {
		story.Points = flagCreatePoints
	}
	story.Epic = flagCreateEpic
	story.Description = flagCreateDesc

	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.close()

	sess.store.Create(cmd.Context(), story)

	if flagJSON {
		return printJSON(story)
	}
	fmt.Printf("Created %s %s: %s\n", strings.ToLower(string(story.Type)), story.ID, story.Title)
	return nil
}
