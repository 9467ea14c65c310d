// Shared helpers for storyflow CLI commands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/storyflow/internal/auth"
	"github.com/mesh-intelligence/storyflow/internal/docx"
	"github.com/mesh-intelligence/storyflow/internal/extract"
	"github.com/mesh-intelligence/storyflow/internal/importer"
	"github.com/mesh-intelligence/storyflow/internal/snapshot"
	"github.com/mesh-intelligence/storyflow/internal/sqlite"
	"github.com/mesh-intelligence/storyflow/internal/store"
	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// session bundles the store with its backends for one command run.
type session struct {
	store  *store.Store
	sqlite *sqlite.Backend // nil in snapshot mode
}

// openSession builds the backend chain from the effective config and
// loads the story collection. The caller must defer sess.close().
//
// sqlite mode runs the database as primary with the JSON snapshot as
// fallback; snapshot mode runs the JSON snapshot as the only store.
func openSession(ctx context.Context) (*session, error) {
	snap, err := snapshot.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}

	sess := &session{}
	switch cfg.Backend {
	case types.BackendSQLite:
		backend := sqlite.NewBackend()
		if err := backend.Attach(cfg); err != nil {
			return nil, fmt.Errorf("attach backend: %w", err)
		}
		sess.sqlite = backend
		sess.store = store.New(cfg.Project, backend, snap, logger)
	case types.BackendSnapshot:
		sess.store = store.New(cfg.Project, snap, nil, logger)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrBackendUnknown, cfg.Backend)
	}

	sess.store.Load(ctx)
	return sess, nil
}

func (s *session) close() {
	s.store.Close()
	if s.sqlite != nil {
		if err := s.sqlite.Detach(); err != nil {
			logger.Error("detach backend", "error", err)
		}
	}
}

// authenticator returns the auth service matching the backend mode:
// database-backed accounts on sqlite, in-memory guests on snapshot.
func (s *session) authenticator() (auth.Authenticator, error) {
	if s.sqlite != nil {
		return auth.NewService(s.sqlite.DB())
	}
	return auth.NewMemory(), nil
}

// newPipeline wires the document import pipeline, or reports the missing
// API key.
func newPipeline(st *store.Store) (*importer.Pipeline, error) {
	extractor, err := extract.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		return nil, err
	}
	return importer.New(st, extractor, docx.ExtractText, logger), nil
}

// newPresenter wires the meeting narrative generator, or reports the
// missing API key.
func newPresenter() (extract.Presenter, error) {
	return extract.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, logger)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// isMissingKey reports whether err is the missing-configuration sentinel.
func isMissingKey(err error) bool {
	return errors.Is(err, types.ErrConfigurationMissing)
}
