// Root command for the storyflow CLI.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storyflow/internal/paths"
	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagProject   string
	flagJSON      bool
	flagVerbose   bool
)

// cfg is the effective configuration, assembled by PersistentPreRunE from
// config.yaml, environment, and flags.
var cfg types.Config

// logger is the process logger, shared by every command.
var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:     "storyflow",
	Short:   "Storyflow is a project tracking board",
	Version: version,
	Long: `Storyflow tracks project stories across a kanban board and a backlog.
Stories move freely between statuses, documents can be broken into story
drafts and imported as a batch, and the collection survives backend
outages through a local snapshot.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "project name (default: "+types.DefaultProject+")")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(backlogCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(presentCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(retryCmd)
}
