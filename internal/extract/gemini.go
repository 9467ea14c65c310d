// Package extract turns free-form requirements text into story drafts
// using the Gemini generateContent API. The model is asked for a strict
// JSON array; anything it returns that does not parse is treated as
// "nothing extractable", not as a failure. The same client also renders
// standup summaries and meeting scripts from the live collection.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// Extractor produces story drafts from requirements text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]types.Draft, error)
}

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	requestTimeout  = 90 * time.Second
)

const extractionPrompt = `You are a project planning assistant. Break the following
requirements document into user stories and bug reports. Return only a JSON array.
Each element has: title (short, imperative), description, status (BACKLOG, TODO,
IN_PROGRESS, BLOCKED, TESTING or DONE; use BACKLOG unless the document says
otherwise), priority (LOW, MEDIUM or HIGH), type (STORY or BUG), points (integer
1-13), epic (short feature-area label), and acceptanceCriteria (array of objects
with text and a completed flag).

Document:
`

// Gemini is the HTTP Extractor against the generateContent endpoint.
type Gemini struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewGemini creates a Gemini extractor. Returns ErrConfigurationMissing
// when no API key is configured.
func NewGemini(apiKey, model string, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("extract: %w: no API key", types.ErrConfigurationMissing)
	}
	if model == "" {
		model = types.DefaultGeminiModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: requestTimeout},
		logger:   logger,
	}, nil
}

// generateContent request and response shapes, reduced to the fields we
// send and read.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// draftSchema constrains the model output to the draft array shape.
var draftSchema = json.RawMessage(`{
	"type": "ARRAY",
	"items": {
		"type": "OBJECT",
		"properties": {
			"title": {"type": "STRING"},
			"description": {"type": "STRING"},
			"status": {"type": "STRING", "enum": ["BACKLOG", "TODO", "IN_PROGRESS", "BLOCKED", "TESTING", "DONE"]},
			"priority": {"type": "STRING", "enum": ["LOW", "MEDIUM", "HIGH"]},
			"type": {"type": "STRING", "enum": ["STORY", "BUG"]},
			"points": {"type": "INTEGER"},
			"epic": {"type": "STRING"},
			"acceptanceCriteria": {
				"type": "ARRAY",
				"items": {
					"type": "OBJECT",
					"properties": {
						"text": {"type": "STRING"},
						"completed": {"type": "BOOLEAN"}
					},
					"required": ["text", "completed"]
				}
			}
		},
		"required": ["title", "status", "priority", "type"]
	}
}`)

// extractedStory is the wire shape the model is asked to produce.
type extractedStory struct {
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	Status             string               `json:"status"`
	Priority           string               `json:"priority"`
	Type               string               `json:"type"`
	Points             int                  `json:"points"`
	Epic               string               `json:"epic"`
	AcceptanceCriteria []extractedCriterion `json:"acceptanceCriteria"`
}

type extractedCriterion struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Extract sends the text to the model and parses the returned JSON array
// into drafts. Transport and API errors are returned; a response that is
// not a parseable story array yields an empty draft list and no error.
func (g *Gemini) Extract(ctx context.Context, text string) ([]types.Draft, error) {
	out, err := g.generate(ctx, generateRequest{
		Contents: []content{{Parts: []part{{Text: extractionPrompt + text}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   draftSchema,
		},
	})
	if err != nil {
		return nil, err
	}
	if out == "" {
		return []types.Draft{}, nil
	}
	return ParseDrafts(out, g.logger), nil
}

// generate issues one generateContent call and returns the text of the
// first candidate. A response with no candidates is an empty string, not
// an error; callers decide whether that is acceptable.
func (g *Gemini) generate(ctx context.Context, reqBody generateRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.endpoint, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generateContent: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		g.logger.Warn("model returned no candidates")
		return "", nil
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

// ParseDrafts parses the model's JSON array into drafts, normalizing
// each element. Unparseable text is an empty result, never an error.
func ParseDrafts(raw string, logger *slog.Logger) []types.Draft {
	if logger == nil {
		logger = slog.Default()
	}
	raw = stripFences(raw)

	var extracted []extractedStory
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil {
		logger.Warn("model output is not a story array", "error", err)
		return []types.Draft{}
	}

	drafts := []types.Draft{}
	for _, e := range extracted {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			continue
		}
		d := types.Draft{
			Title:       title,
			Description: strings.TrimSpace(e.Description),
			Status:      normalizeStatus(e.Status),
			Priority:    normalizePriority(e.Priority),
			Type:        normalizeType(e.Type),
			Points:      e.Points,
			Epic:        strings.TrimSpace(e.Epic),
		}
		if d.Points < 0 {
			d.Points = 0
		}
		for _, c := range e.AcceptanceCriteria {
			text := strings.TrimSpace(c.Text)
			if text == "" {
				continue
			}
			d.AcceptanceCriteria = append(d.AcceptanceCriteria,
				types.AcceptanceCriterion{Text: text, Completed: c.Completed})
		}
		drafts = append(drafts, d)
	}
	return drafts
}

// stripFences removes a markdown code fence if the model wrapped its
// JSON in one despite the MIME type hint.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func normalizeStatus(s string) types.Status {
	st := types.Status(strings.ToUpper(strings.TrimSpace(s)))
	if !types.ValidStatus(st) {
		return types.StatusBacklog
	}
	return st
}

func normalizePriority(p string) types.Priority {
	pr := types.Priority(strings.ToUpper(strings.TrimSpace(p)))
	if !types.ValidPriority(pr) {
		return types.PriorityMedium
	}
	return pr
}

func normalizeType(t string) types.StoryType {
	st := types.StoryType(strings.ToUpper(strings.TrimSpace(t)))
	if !types.ValidType(st) {
		return types.TypeStory
	}
	return st
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
