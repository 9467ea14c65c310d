package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the storyflow data directory",
	Long: `Init creates the configuration and data directories, writes a default
config.yaml on first run, and prepares the selected backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		fmt.Printf("Initialized %s backend for project %q in %s\n", cfg.Backend, cfg.Project, cfg.DataDir)
		return nil
	},
}
