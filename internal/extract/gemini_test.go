package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// modelResponse wraps a model output string in the generateContent
// response envelope.
func modelResponse(t *testing.T, text string) []byte {
	t.Helper()
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	body, err := json.Marshal(resp)
	require.NoError(t, err)
	return body
}

func testGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGemini("test-key", "test-model", nil)
	require.NoError(t, err)
	g.endpoint = srv.URL
	return g
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini("", "model", nil)
	assert.ErrorIs(t, err, types.ErrConfigurationMissing)
}

func TestExtractParsesStories(t *testing.T) {
	output := `[
		{"title": "Build login", "description": "Users sign in", "status": "TODO",
		 "priority": "HIGH", "type": "STORY", "points": 5, "epic": "Auth",
		 "acceptanceCriteria": [
			{"text": "session persists", "completed": true},
			{"text": "bad password rejected", "completed": false}
		 ]},
		{"title": "Fix crash on save", "priority": "MEDIUM", "type": "BUG"}
	]`
	g := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "test-model:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"status"`, "schema constrains the status enum")
		w.Write(modelResponse(t, output))
	})

	drafts, err := g.Extract(context.Background(), "requirements")
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, "Build login", drafts[0].Title)
	assert.Equal(t, types.StatusTodo, drafts[0].Status)
	assert.Equal(t, types.PriorityHigh, drafts[0].Priority)
	assert.Equal(t, types.TypeStory, drafts[0].Type)
	assert.Equal(t, 5, drafts[0].Points)
	assert.Equal(t, "Auth", drafts[0].Epic)
	require.Len(t, drafts[0].AcceptanceCriteria, 2)
	assert.Equal(t, "session persists", drafts[0].AcceptanceCriteria[0].Text)
	assert.True(t, drafts[0].AcceptanceCriteria[0].Completed)
	assert.False(t, drafts[0].AcceptanceCriteria[1].Completed)

	assert.Equal(t, types.StatusBacklog, drafts[1].Status, "absent status lands in the backlog")
	assert.Equal(t, types.TypeBug, drafts[1].Type)
	assert.Zero(t, drafts[1].Points, "absent points stay absent")
}

func TestExtractMalformedOutputIsEmptyNotError(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"not json", "I could not find any stories in this document."},
		{"object instead of array", `{"title": "one story"}`},
		{"empty string", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write(modelResponse(t, tt.output))
			})
			drafts, err := g.Extract(context.Background(), "doc")
			require.NoError(t, err)
			assert.Empty(t, drafts)
		})
	}
}

func TestExtractStripsCodeFences(t *testing.T) {
	output := "```json\n[{\"title\": \"Fenced\", \"priority\": \"LOW\", \"type\": \"STORY\"}]\n```"
	g := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(modelResponse(t, output))
	})

	drafts, err := g.Extract(context.Background(), "doc")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Fenced", drafts[0].Title)
}

func TestExtractAPIErrorIsError(t *testing.T) {
	g := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	})

	_, err := g.Extract(context.Background(), "doc")
	assert.Error(t, err)
}

func TestExtractTransportErrorIsError(t *testing.T) {
	g, err := NewGemini("test-key", "test-model", nil)
	require.NoError(t, err)
	g.endpoint = "http://127.0.0.1:0"

	_, err = g.Extract(context.Background(), "doc")
	assert.ErrorIs(t, err, types.ErrBackendUnavailable)
}

func TestExtractNoCandidatesIsEmpty(t *testing.T) {
	g := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	})

	drafts, err := g.Extract(context.Background(), "doc")
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestParseDraftsNormalization(t *testing.T) {
	raw := `[
		{"title": "  padded  ", "status": "SOMEDAY", "priority": "urgent", "type": "chore",
		 "points": -2,
		 "acceptanceCriteria": [
			{"text": "  ok  ", "completed": true},
			{"text": "   ", "completed": false}
		 ]},
		{"title": "   "},
		{"title": "kept", "status": "in_progress", "priority": "low", "type": "bug"}
	]`
	drafts := ParseDrafts(raw, nil)
	require.Len(t, drafts, 2)

	assert.Equal(t, "padded", drafts[0].Title)
	assert.Equal(t, types.StatusBacklog, drafts[0].Status, "unknown status falls back")
	assert.Equal(t, types.PriorityMedium, drafts[0].Priority, "unknown priority falls back")
	assert.Equal(t, types.TypeStory, drafts[0].Type, "unknown type falls back")
	assert.Zero(t, drafts[0].Points, "negative points clamp to absent")
	require.Len(t, drafts[0].AcceptanceCriteria, 1)
	assert.Equal(t, "ok", drafts[0].AcceptanceCriteria[0].Text)
	assert.True(t, drafts[0].AcceptanceCriteria[0].Completed)

	assert.Equal(t, types.StatusInProgress, drafts[1].Status, "case-insensitive enum")
	assert.Equal(t, types.PriorityLow, drafts[1].Priority)
	assert.Equal(t, types.TypeBug, drafts[1].Type)
}
