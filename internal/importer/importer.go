// Package importer runs the document-to-backlog pipeline: read uploaded
// files, extract their text, ask the model for story drafts, and admit
// the batch into the store.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/storyflow/internal/extract"
	"github.com/mesh-intelligence/storyflow/internal/store"
	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// File is an uploaded document: its name decides how the text is read.
type File struct {
	Name string
	Data []byte
}

// TextExtractor reads the plain text of an uploaded file.
type TextExtractor func(name string, data []byte) (string, error)

// Pipeline wires extraction into the story store.
type Pipeline struct {
	store     *store.Store
	extractor extract.Extractor
	readText  TextExtractor
	logger    *slog.Logger
}

// New creates an import pipeline. readText defaults to passing file
// contents through unchanged when nil.
func New(st *store.Store, ex extract.Extractor, readText TextExtractor, logger *slog.Logger) *Pipeline {
	if readText == nil {
		readText = func(_ string, data []byte) (string, error) { return string(data), nil }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: st, extractor: ex, readText: readText, logger: logger}
}

// ImportText extracts drafts from freeform text and imports them as one
// batch. Extraction failure leaves the store untouched and surfaces a
// single ErrExtractionFailure; a model response with nothing extractable
// imports an empty batch and returns no stories.
func (p *Pipeline) ImportText(ctx context.Context, text string) ([]types.Story, error) {
	if strings.TrimSpace(text) == "" {
		return []types.Story{}, nil
	}

	drafts, err := p.extractor.Extract(ctx, text)
	if err != nil {
		p.logger.Error("extraction failed", "error", err)
		return nil, fmt.Errorf("%w: %v", types.ErrExtractionFailure, err)
	}
	if len(drafts) == 0 {
		p.logger.Info("nothing extractable in submitted text")
		return []types.Story{}, nil
	}

	stories, err := p.store.ImportBatch(ctx, drafts)
	if err != nil {
		return nil, fmt.Errorf("import batch: %w", err)
	}
	p.logger.Info("imported extracted stories", "count", len(stories))
	return stories, nil
}

// ImportFiles reads every file, concatenates their text with source
// headers, and runs one extraction over the combined document. A file
// that cannot be read aborts the whole submission before anything is
// sent to the model.
func (p *Pipeline) ImportFiles(ctx context.Context, files []File) ([]types.Story, error) {
	var b strings.Builder
	for _, f := range files {
		text, err := p.readText(f.Name, f.Data)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "--- SOURCE: %s ---\n%s\n\n", f.Name, text)
	}
	return p.ImportText(ctx, b.String())
}
