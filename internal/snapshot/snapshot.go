// Package snapshot implements the local fallback store: a project-scoped
// JSON file holding the full story collection. It backs the board when no
// live backend is configured and caches the last successful live load so
// the board still opens when the backend is unreachable.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// Backend persists story collections as one JSON file per project under
// a data directory. It implements both the persistence Backend interface
// and the store's Fallback interface.
type Backend struct {
	mu  sync.Mutex
	dir string
}

// New creates a snapshot backend rooted at dir, creating the directory if
// needed.
func New(dir string) (*Backend, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot: %w: data dir not set", types.ErrConfigurationMissing)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Backend{dir: dir}, nil
}

// path returns the snapshot file for a project. Project names are free
// text, so anything outside a conservative character set is flattened.
func (b *Backend) path(project string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, project)
	return filepath.Join(b.dir, "stories_"+sanitized+".json")
}

// FetchAll returns the project's snapshot. A missing file is an empty
// collection, not an error.
func (b *Backend) FetchAll(_ context.Context, project string) ([]types.Story, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readLocked(project)
}

// Upsert inserts or replaces one story in the project's snapshot.
func (b *Backend) Upsert(_ context.Context, project string, story types.Story) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stories, err := b.readLocked(project)
	if err != nil {
		return err
	}

	replaced := false
	for i := range stories {
		if stories[i].ID == story.ID {
			stories[i] = story
			replaced = true
			break
		}
	}
	if !replaced {
		stories = append(stories, story)
	}
	return b.writeLocked(project, stories)
}

// Delete removes a story by ID from whichever project snapshot holds it.
// Deleting an absent ID succeeds.
func (b *Backend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(b.dir, "stories_*.json"))
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	for _, path := range matches {
		stories, err := b.readFileLocked(path)
		if err != nil {
			return err
		}
		for i := range stories {
			if stories[i].ID == id {
				stories = append(stories[:i], stories[i+1:]...)
				return b.writeFileLocked(path, stories)
			}
		}
	}
	return nil
}

// Subscribe is a no-op: a local file has no remote writers to watch.
func (b *Backend) Subscribe(_ string, _ func()) (func(), error) {
	return func() {}, nil
}

// SaveAll replaces the project's snapshot with the given collection.
func (b *Backend) SaveAll(project string, stories []types.Story) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(project, stories)
}

// LoadAll reads the project's snapshot. A missing file is an empty
// collection.
func (b *Backend) LoadAll(project string) ([]types.Story, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readLocked(project)
}

func (b *Backend) readLocked(project string) ([]types.Story, error) {
	return b.readFileLocked(b.path(project))
}

func (b *Backend) readFileLocked(path string) ([]types.Story, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []types.Story{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var stories []types.Story
	if err := json.Unmarshal(data, &stories); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return stories, nil
}

func (b *Backend) writeLocked(project string, stories []types.Story) error {
	return b.writeFileLocked(b.path(project), stories)
}

// writeFileLocked writes the snapshot atomically using the temp-file,
// fsync, rename pattern so a crash mid-write never corrupts the file.
func (b *Backend) writeFileLocked(path string, stories []types.Story) error {
	if stories == nil {
		stories = []types.Story{}
	}
	data, err := json.MarshalIndent(stories, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	return nil
}
