package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// Presenter renders meeting-ready narratives from the current story
// collection.
type Presenter interface {
	StandupSummary(ctx context.Context, project string, stories []types.Story) (string, error)
	MeetingScript(ctx context.Context, project string, stories []types.Story) (string, error)
}

const standupPromptFmt = `As a Project Manager, provide a concise and professional
meeting summary for %q.
Focus on:
1. Key Accomplishments (Done items).
2. Current Focus (In Progress items).
3. Critical Blockers (Blocked items) and proposed next steps.
Format it with clear headings and bullet points using Markdown.

Current Sprint Data:
%s`

const scriptPromptFmt = `You are a world-class Agile Coach preparing the host of the
%q stand-up. Write a "Meeting Script" with speaker notes that:
1. Opens with an energetic welcome.
2. Celebrates the wins (DONE items).
3. Reviews current velocity (IN_PROGRESS items).
4. Calls out the "ghosts" (BLOCKED items) with suggested mitigations.
5. Previews the hopper (TODO and BACKLOG items).
6. Closes with a clear call to action.
Use Markdown bolding for emphasis and [Action] brackets for stage directions.

Current Board:
%s`

// StandupSummary asks the model for a written status summary of the
// collection. Unlike Extract, an empty model response is an error: there
// is nothing useful to present.
func (g *Gemini) StandupSummary(ctx context.Context, project string, stories []types.Story) (string, error) {
	prompt := fmt.Sprintf(standupPromptFmt, project, standupContext(stories))
	return g.present(ctx, prompt)
}

// MeetingScript asks the model for a spoken run-of-show script covering
// the collection.
func (g *Gemini) MeetingScript(ctx context.Context, project string, stories []types.Story) (string, error) {
	prompt := fmt.Sprintf(scriptPromptFmt, project, scriptContext(stories))
	return g.present(ctx, prompt)
}

func (g *Gemini) present(ctx context.Context, prompt string) (string, error) {
	out, err := g.generate(ctx, generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("model returned no narrative")
	}
	return out, nil
}

// standupContext renders one line per story with the leading slice of
// its description, enough for the model to summarize without flooding
// the prompt.
func standupContext(stories []types.Story) string {
	var b strings.Builder
	for _, s := range stories {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", s.Status, s.Title, truncate(s.Description, 100))
	}
	return b.String()
}

func scriptContext(stories []types.Story) string {
	var b strings.Builder
	for _, s := range stories {
		fmt.Fprintf(&b, "[%s] %s (%s Priority)\n", s.Status, s.Title, s.Priority)
	}
	return b.String()
}
