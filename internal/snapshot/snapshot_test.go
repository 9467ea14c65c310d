package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

func testStory(id string) types.Story {
	return types.Story{
		ID:        id,
		Title:     "story " + id,
		Status:    types.StatusBacklog,
		Priority:  types.PriorityMedium,
		Type:      types.TypeStory,
		CreatedAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewRequiresDataDir(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, types.ErrConfigurationMissing)
}

func TestFetchAllMissingFileIsEmpty(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)

	stories, err := b.FetchAll(context.Background(), "NEW-PROJECT")
	require.NoError(t, err)
	assert.NotNil(t, stories)
	assert.Empty(t, stories)
}

func TestUpsertRoundTrip(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Upsert(ctx, "P1", testStory("s1")))
	require.NoError(t, b.Upsert(ctx, "P1", testStory("s2")))

	// Replace s1.
	changed := testStory("s1")
	changed.Title = "renamed"
	require.NoError(t, b.Upsert(ctx, "P1", changed))

	stories, err := b.FetchAll(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "renamed", stories[0].Title)
}

func TestProjectsDoNotCollide(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Upsert(ctx, "ALPHA", testStory("a1")))
	require.NoError(t, b.Upsert(ctx, "BETA", testStory("b1")))

	alpha, err := b.FetchAll(ctx, "ALPHA")
	require.NoError(t, err)
	require.Len(t, alpha, 1)
	assert.Equal(t, "a1", alpha[0].ID)

	beta, err := b.FetchAll(ctx, "BETA")
	require.NoError(t, err)
	require.Len(t, beta, 1)
	assert.Equal(t, "b1", beta[0].ID)
}

func TestDeleteAcrossProjects(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Upsert(ctx, "P1", testStory("s1")))
	require.NoError(t, b.Delete(ctx, "s1"))

	stories, err := b.FetchAll(ctx, "P1")
	require.NoError(t, err)
	assert.Empty(t, stories)

	// Absent ID is not an error.
	assert.NoError(t, b.Delete(ctx, "never-existed"))
}

func TestSaveAllAndLoadAll(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)

	want := []types.Story{testStory("s1"), testStory("s2")}
	require.NoError(t, b.SaveAll("P1", want))

	got, err := b.LoadAll("P1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// SaveAll replaces, never merges.
	require.NoError(t, b.SaveAll("P1", nil))
	got, err = b.LoadAll("P1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProjectNameSanitization(t *testing.T) {
	dir := t.TempDir()
	b, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, b.Upsert(ctx, "weird/project name!", testStory("s1")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "stories_weird_project_name_.json", entries[0].Name())

	stories, err := b.FetchAll(ctx, "weird/project name!")
	require.NoError(t, err)
	assert.Len(t, stories, 1)
}

func TestSubscribeIsNoop(t *testing.T) {
	b, err := New(t.TempDir())
	require.NoError(t, err)

	cancel, err := b.Subscribe("P1", func() {})
	require.NoError(t, err)
	assert.NotPanics(t, cancel)
	assert.NotPanics(t, cancel, "cancel is safe to call twice")
}

func TestWriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	b, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, b.SaveAll("P1", []types.Story{testStory("s1")}))

	// No temp files left behind.
	leftovers, err := filepath.Glob(filepath.Join(dir, ".snapshot-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
