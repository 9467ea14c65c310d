package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storyflow/internal/extract"
	"github.com/mesh-intelligence/storyflow/internal/importer"
	"github.com/mesh-intelligence/storyflow/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over HTTP",
	Long: `Serve starts the HTTP API: authentication, the board and backlog
projections, story mutation, document import, and meeting narratives.
Import and presentation are disabled when no Gemini API key is
configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		authr, err := sess.authenticator()
		if err != nil {
			return fmt.Errorf("init auth: %w", err)
		}

		var pipeline *importer.Pipeline
		var presenter extract.Presenter
		pipeline, err = newPipeline(sess.store)
		if err != nil {
			if !isMissingKey(err) {
				return err
			}
			logger.Warn("document import and presentation disabled", "reason", err)
			pipeline = nil
		} else {
			presenter, err = newPresenter()
			if err != nil {
				return err
			}
		}

		if err := sess.store.StartSync(); err != nil {
			return fmt.Errorf("start sync: %w", err)
		}

		srv := server.New(sess.store, authr, pipeline, presenter, cfg, logger)
		return srv.Run()
	},
}
