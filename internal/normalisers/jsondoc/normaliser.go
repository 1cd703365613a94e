// Package jsondoc normalises JSON uploads by flattening them to indented
// text so the chunker and embedder treat them as prose.
package jsondoc

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles JSON documents.
type Normaliser struct{}

// New creates a new JSON normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".json"}
}

// SourceType returns the source type this normaliser produces.
func (n *Normaliser) SourceType() domain.SourceType {
	return domain.SourceTypeSupportDoc
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Format-specific normaliser, higher than plaintext
}

// Normalise converts a JSON document to a normalised document. The whole
// file is re-indented and kept as one text; malformed JSON falls back to
// the raw text rather than failing the document.
func (n *Normaliser) Normalise(_ context.Context, entry domain.IngestionEntry) (*domain.Document, error) {
	if entry.Filename == "" {
		return nil, domain.ErrInvalidInput
	}

	content := flattenJSON(entry.Content)

	return &domain.Document{
		ID:       uuid.New().String(),
		Filename: entry.Filename,
		Type:     domain.SourceTypeSupportDoc,
		Title:    titleFromFilename(entry.Filename),
		Content:  content,
		Metadata: map[string]any{
			"format": "json",
		},
		IngestedAt: time.Now(),
	}, nil
}

// flattenJSON re-indents JSON for readability, falling back to the raw
// text when parsing fails.
func flattenJSON(raw []byte) string {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return strings.TrimSpace(string(raw))
	}

	indented, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return strings.TrimSpace(string(raw))
	}
	return string(indented)
}

// titleFromFilename derives a readable title from the filename.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return base
}
