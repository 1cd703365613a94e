package driven

import (
	"context"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// Normaliser transforms a raw upload into document form.
// Each normaliser handles specific file extensions (e.g., Markdown, HTML).
type Normaliser interface {
	// SupportedExtensions returns the lower-case extensions this
	// normaliser handles, including the dot (".md", ".html").
	SupportedExtensions() []string

	// SourceType returns the source type this normaliser produces.
	SourceType() domain.SourceType

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise transforms an ingestion entry into a document.
	// Chunking is handled separately by the Chunker.
	Normalise(ctx context.Context, entry domain.IngestionEntry) (*domain.Document, error)
}

// NormaliserRegistry selects the appropriate normaliser for a filename.
type NormaliserRegistry interface {
	// Select returns the highest-priority normaliser for the filename.
	// A fallback normaliser must always be available, so Select only fails
	// on an empty filename.
	Select(filename string) (Normaliser, error)
}
