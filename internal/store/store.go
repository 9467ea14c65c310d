// Package store holds the in-memory story collection for the active
// project and keeps it synchronized with a persistence backend.
//
// Every mutation applies to memory first and then issues the backend
// write as a best-effort side effect: backend unavailability never blocks
// local editing, and local reads are always consistent with the latest
// local write. Failed writes are not silent — the affected story IDs are
// tracked in a dirty set that Retry can flush once the backend returns.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// Fallback is the local snapshot collaborator: a project-scoped save of
// the full collection, read when the live backend is unreachable and
// written whenever a live load succeeds.
type Fallback interface {
	SaveAll(project string, stories []types.Story) error
	LoadAll(project string) ([]types.Story, error)
}

// Store is the in-memory story collection for one project.
type Store struct {
	project  string
	backend  types.Backend
	fallback Fallback
	logger   *slog.Logger

	mu      sync.RWMutex
	stories []types.Story
	dirty   map[string]bool

	unsubscribe func()
}

// New creates a store for the given project. backend must not be nil; in
// local-only mode pass the snapshot backend as the primary. fallback may
// be nil when the primary backend is itself the local snapshot.
func New(project string, backend types.Backend, fallback Fallback, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		project:  project,
		backend:  backend,
		fallback: fallback,
		logger:   logger,
		stories:  []types.Story{},
		dirty:    make(map[string]bool),
	}
}

// Project returns the project key this store is scoped to.
func (s *Store) Project() string { return s.project }

// Load fetches all stories for the project from the backend. On backend
// failure it falls back to the local snapshot, then to an empty
// collection; it never returns an error to the caller. A successful live
// fetch refreshes the snapshot.
func (s *Store) Load(ctx context.Context) []types.Story {
	stories, err := s.backend.FetchAll(ctx, s.project)
	if err == nil {
		s.replaceAll(stories)
		if s.fallback != nil {
			if err := s.fallback.SaveAll(s.project, stories); err != nil {
				s.logger.Warn("snapshot write failed", "project", s.project, "error", err)
			}
		}
		return s.Stories()
	}

	s.logger.Warn("backend fetch failed, falling back to snapshot",
		"project", s.project, "error", err)

	if s.fallback != nil {
		if snap, err := s.fallback.LoadAll(s.project); err == nil {
			s.replaceAll(snap)
			return s.Stories()
		} else {
			s.logger.Warn("snapshot read failed", "project", s.project, "error", err)
		}
	}

	s.replaceAll(nil)
	return []types.Story{}
}

// Stories returns a copy of the collection in insertion order.
func (s *Store) Stories() []types.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Story, len(s.stories))
	for i := range s.stories {
		out[i] = s.stories[i].Clone()
	}
	return out
}

// Get returns the story with the given ID, if present.
func (s *Store) Get(id string) (types.Story, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.stories {
		if s.stories[i].ID == id {
			return s.stories[i].Clone(), true
		}
	}
	return types.Story{}, false
}

// Create appends the story to the collection and requests backend
// persistence.
func (s *Store) Create(ctx context.Context, story types.Story) {
	s.mu.Lock()
	s.stories = append(s.stories, story.Clone())
	s.mu.Unlock()

	s.persist(ctx, story)
}

// Update replaces the record matching story.ID; if no match exists it
// behaves as Create. Either way a backend upsert is requested.
func (s *Store) Update(ctx context.Context, story types.Story) {
	s.mu.Lock()
	replaced := false
	for i := range s.stories {
		if s.stories[i].ID == story.ID {
			s.stories[i] = story.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		s.stories = append(s.stories, story.Clone())
	}
	s.mu.Unlock()

	s.persist(ctx, story)
}

// Move sets the story's status. Any-to-any transitions are legal; the
// board columns carry no edge restrictions. Moving an unknown ID is a
// no-op, not an error: the story may have been deleted from another view.
func (s *Store) Move(ctx context.Context, id string, status types.Status) {
	if !types.ValidStatus(status) {
		s.logger.Warn("move ignored: unknown status", "id", id, "status", string(status))
		return
	}
	s.mutate(ctx, id, func(st *types.Story) { st.Status = status })
}

// Assign sets the story's assignee. An empty userID unassigns. Assigning
// an unknown story ID is a no-op.
func (s *Store) Assign(ctx context.Context, id, userID string) {
	s.mutate(ctx, id, func(st *types.Story) { st.AssigneeID = userID })
}

// mutate looks up a story by ID, applies fn to a copy, and runs Update.
func (s *Store) mutate(ctx context.Context, id string, fn func(*types.Story)) {
	s.mu.RLock()
	var updated types.Story
	found := false
	for i := range s.stories {
		if s.stories[i].ID == id {
			updated = s.stories[i].Clone()
			found = true
			break
		}
	}
	s.mu.RUnlock()

	if !found {
		return
	}
	fn(&updated)
	s.Update(ctx, updated)
}

// Remove deletes the story from the collection and requests backend
// deletion. The local delete happens regardless of the backend outcome;
// removing an absent ID is a no-op.
func (s *Store) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	for i := range s.stories {
		if s.stories[i].ID == id {
			s.stories = append(s.stories[:i], s.stories[i+1:]...)
			break
		}
	}
	delete(s.dirty, id)
	s.mu.Unlock()

	if err := s.backend.Delete(ctx, id); err != nil {
		s.logger.Warn("backend delete failed", "id", id, "error", err)
	}
}

// ImportBatch validates every draft, materializes them as stories with
// fresh IDs, timestamps, empty comments, and fresh criterion IDs, and
// appends them to the collection. The batch is all-or-nothing in memory:
// one invalid draft rejects the whole batch and leaves the collection
// unchanged. Backend writes are issued per story and are independent;
// partial backend failure is logged and tracked dirty, never rolled back.
func (s *Store) ImportBatch(ctx context.Context, drafts []types.Draft) ([]types.Story, error) {
	for _, d := range drafts {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}

	stories := make([]types.Story, len(drafts))
	for i, d := range drafts {
		stories[i] = d.ToStory()
	}

	s.mu.Lock()
	s.stories = append(s.stories, stories...)
	s.mu.Unlock()

	for _, st := range stories {
		s.persist(ctx, st)
	}
	return stories, nil
}

// Dirty returns the IDs of stories whose latest backend write failed.
func (s *Store) Dirty() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	return ids
}

// Retry re-attempts the backend upsert for every dirty story.
func (s *Store) Retry(ctx context.Context) {
	for _, id := range s.Dirty() {
		if story, ok := s.Get(id); ok {
			s.persist(ctx, story)
		}
	}
}

// StartSync subscribes to backend change notifications for this project.
// Each notification refreshes the collection from the backend,
// last-writer-wins per story record, except that locally-dirty stories
// are never overwritten by a remote read.
func (s *Store) StartSync() error {
	cancel, err := s.backend.Subscribe(s.project, func() {
		s.refresh(context.Background())
	})
	if err != nil {
		return err
	}
	s.unsubscribe = cancel
	return nil
}

// Close stops the backend subscription if one is active.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// refresh reloads the collection from the backend after a remote change
// notification, preserving in-flight local edits.
func (s *Store) refresh(ctx context.Context) {
	remote, err := s.backend.FetchAll(ctx, s.project)
	if err != nil {
		s.logger.Warn("refresh fetch failed", "project", s.project, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	local := make(map[string]types.Story, len(s.stories))
	for i := range s.stories {
		local[s.stories[i].ID] = s.stories[i]
	}

	merged := make([]types.Story, 0, len(remote))
	seen := make(map[string]bool, len(remote))
	for _, r := range remote {
		seen[r.ID] = true
		if s.dirty[r.ID] {
			// A failed local write is still the latest write.
			merged = append(merged, local[r.ID])
			continue
		}
		merged = append(merged, r.Clone())
	}
	// Dirty stories the remote does not know about yet stay in the
	// collection until their write lands.
	for i := range s.stories {
		id := s.stories[i].ID
		if !seen[id] && s.dirty[id] {
			merged = append(merged, s.stories[i])
		}
	}
	s.stories = merged
}

// replaceAll swaps in a freshly loaded collection and clears dirty state.
func (s *Store) replaceAll(stories []types.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stories = make([]types.Story, len(stories))
	for i := range stories {
		s.stories[i] = stories[i].Clone()
	}
	s.dirty = make(map[string]bool)
}

// persist issues the backend upsert for one story. The local mutation has
// already been applied by the caller. The story is marked dirty before the
// write starts and cleared only on success, so a refresh that lands while
// the write is in flight cannot discard the edit; a failure leaves the
// story dirty for Retry.
func (s *Store) persist(ctx context.Context, story types.Story) {
	s.mu.Lock()
	s.dirty[story.ID] = true
	s.mu.Unlock()

	err := s.backend.Upsert(ctx, s.project, story)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("backend upsert failed", "id", story.ID, "error", err)
		return
	}
	delete(s.dirty, story.ID)
}
