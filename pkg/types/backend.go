package types

import (
	"context"
	"errors"
)

// Backend is the persistence collaborator behind the story store. Stories
// are keyed by project so multiple projects never collide. Implementations
// must be safe for concurrent use.
type Backend interface {
	// FetchAll returns every story tagged with the given project.
	FetchAll(ctx context.Context, project string) ([]Story, error)

	// Upsert inserts or replaces a story by ID under the given project.
	Upsert(ctx context.Context, project string, story Story) error

	// Delete removes a story by ID. Deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error

	// Subscribe registers onChange to be invoked when stories under the
	// given project change behind the caller's back. The returned cancel
	// function stops the subscription and is safe to call more than once.
	// Backends without change detection return a no-op cancel.
	Subscribe(project string, onChange func()) (cancel func(), err error)
}

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Boundary errors. All backend and extraction failures are converted to
// one of these at the component boundary; none of them may leave the
// in-memory collection partially updated within a single logical
// operation.
var (
	// ErrConfigurationMissing means a collaborator has no credentials or
	// location configured. The feature degrades (local-only persistence,
	// disabled import) instead of crashing.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrBackendUnavailable is a per-call persistence failure. Callers
	// log it and keep local state authoritative.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrExtractionFailure means the story extractor errored or returned
	// malformed output. The import batch is aborted whole.
	ErrExtractionFailure = errors.New("story extraction failed")

	// ErrFileRead means an uploaded document could not be read. The
	// whole submission is aborted.
	ErrFileRead = errors.New("file read failed")
)

// Collection errors.
var (
	ErrNotFound = errors.New("story not found")
)
