package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents. It is also the fallback for
// unknown extensions and for PDF uploads whose text was extracted upstream.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt", ".text", ".log", ".pdf"}
}

// SourceType returns the source type this normaliser produces.
func (n *Normaliser) SourceType() domain.SourceType {
	return domain.SourceTypeSupportDoc
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts an upload to a document. The Content field contains
// the text as uploaded. Chunking is handled by the Chunker.
func (n *Normaliser) Normalise(_ context.Context, entry domain.IngestionEntry) (*domain.Document, error) {
	if entry.Filename == "" {
		return nil, domain.ErrInvalidInput
	}

	content := strings.TrimSpace(string(entry.Content))

	return &domain.Document{
		ID:       uuid.New().String(),
		Filename: entry.Filename,
		Type:     domain.SourceTypeSupportDoc,
		Title:    titleFromFilename(entry.Filename),
		Content:  content,
		Metadata: map[string]any{
			"format": "plaintext",
		},
		IngestedAt: time.Now(),
	}, nil
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
