package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagPresentScript bool

var presentCmd = &cobra.Command{
	Use:   "present",
	Short: "Generate a meeting narrative from the board",
	Long: `Present asks the model for a meeting-ready narrative over the whole
collection: a status summary by default, or a spoken run-of-show script
with --script. Requires a Gemini API key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		presenter, err := newPresenter()
		if err != nil {
			return err
		}

		stories := sess.store.Stories()
		format := "summary"
		narrative := ""
		if flagPresentScript {
			format = "script"
			narrative, err = presenter.MeetingScript(cmd.Context(), cfg.Project, stories)
		} else {
			narrative, err = presenter.StandupSummary(cmd.Context(), cfg.Project, stories)
		}
		if err != nil {
			return fmt.Errorf("generate %s: %w", format, err)
		}

		if flagJSON {
			return printJSON(map[string]string{"format": format, "narrative": narrative})
		}
		fmt.Println(narrative)
		return nil
	},
}

func init() {
	presentCmd.Flags().BoolVar(&flagPresentScript, "script", false, "generate a spoken meeting script instead of a summary")
}
