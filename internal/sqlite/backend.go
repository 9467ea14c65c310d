// Package sqlite implements the live persistence backend for Storyflow
// on an embedded SQLite database. Change notifications are polled: each
// subscription watches a cheap per-project fingerprint and fires when it
// moves, which is enough for the board's eventual-consistency contract.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// dbFileName is the database file created under the data directory.
const dbFileName = "storyflow.db"

// pollInterval is how often subscriptions check the change fingerprint.
const pollInterval = 2 * time.Second

// Backend implements types.Backend on SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance. The backend is not
// attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens (or creates) the database under config.DataDir and applies
// the schema. Returns ErrAlreadyAttached if called while attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, dbFileName))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite serializes writes; one connection avoids lock churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the database. Idempotent; after Detach all operations
// return ErrBackendDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// DB exposes the underlying connection for collaborators that share the
// database file, such as the auth service.
func (b *Backend) DB() *sql.DB {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.db
}

// conn returns the live connection or ErrBackendDetached.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return b.db, nil
}

// FetchAll returns every story tagged with the project, in creation
// order with insertion order breaking timestamp ties.
func (b *Backend) FetchAll(ctx context.Context, project string) ([]types.Story, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description, status, priority, type, points,
		       assignee_id, epic, created_at, acceptance_criteria, comments
		FROM stories WHERE project_name = ?
		ORDER BY created_at ASC, rowid ASC`, project)
	if err != nil {
		return nil, fmt.Errorf("fetch stories: %w", err)
	}
	defer rows.Close()

	stories := []types.Story{}
	for rows.Next() {
		var (
			s         types.Story
			createdMs int64
			criteria  string
			comments  string
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Status,
			&s.Priority, &s.Type, &s.Points, &s.AssigneeID, &s.Epic,
			&createdMs, &criteria, &comments); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		s.CreatedAt = time.UnixMilli(createdMs).UTC()
		if err := json.Unmarshal([]byte(criteria), &s.AcceptanceCriteria); err != nil {
			return nil, fmt.Errorf("decode criteria for %s: %w", s.ID, err)
		}
		if err := json.Unmarshal([]byte(comments), &s.Comments); err != nil {
			return nil, fmt.Errorf("decode comments for %s: %w", s.ID, err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

// Upsert inserts or replaces a story by ID under the project.
func (b *Backend) Upsert(ctx context.Context, project string, story types.Story) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	criteria, err := encodeList(story.AcceptanceCriteria)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}
	comments, err := encodeList(story.Comments)
	if err != nil {
		return fmt.Errorf("encode comments: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO stories (id, project_name, title, description, status,
			priority, type, points, assignee_id, epic, created_at,
			updated_at, acceptance_criteria, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_name = excluded.project_name,
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			type = excluded.type,
			points = excluded.points,
			assignee_id = excluded.assignee_id,
			epic = excluded.epic,
			updated_at = excluded.updated_at,
			acceptance_criteria = excluded.acceptance_criteria,
			comments = excluded.comments`,
		story.ID, project, story.Title, story.Description, string(story.Status),
		string(story.Priority), string(story.Type), story.Points,
		story.AssigneeID, story.Epic, story.CreatedAt.UnixMilli(),
		time.Now().UnixMilli(), criteria, comments)
	if err != nil {
		return fmt.Errorf("upsert story %s: %w", story.ID, err)
	}
	return nil
}

// Delete removes a story by ID. Deleting an absent ID succeeds.
func (b *Backend) Delete(ctx context.Context, id string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete story %s: %w", id, err)
	}
	return nil
}

// Subscribe starts a poller that invokes onChange whenever the project's
// story fingerprint moves. The first observation establishes the baseline
// and does not fire. The returned cancel stops the poller and is safe to
// call more than once.
func (b *Backend) Subscribe(project string, onChange func()) (func(), error) {
	if _, err := b.conn(); err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	var once sync.Once
	cancel := func() { once.Do(func() { close(stop) }) }

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		last, _ := b.fingerprint(project)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fp, err := b.fingerprint(project)
				if err != nil {
					continue
				}
				if fp != last {
					last = fp
					onChange()
				}
			}
		}
	}()

	return cancel, nil
}

// fingerprint summarizes a project's stories cheaply enough to poll.
func (b *Backend) fingerprint(project string) (string, error) {
	db, err := b.conn()
	if err != nil {
		return "", err
	}

	var count int64
	var maxUpdated int64
	err = db.QueryRow(`
		SELECT COUNT(*), COALESCE(MAX(updated_at), 0)
		FROM stories WHERE project_name = ?`, project).Scan(&count, &maxUpdated)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d/%d", count, maxUpdated), nil
}

// encodeList marshals a criteria or comment slice, normalizing nil to an
// empty JSON array so scans always round-trip.
func encodeList(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(data)
	if s == "null" {
		s = "[]"
	}
	return s, nil
}
