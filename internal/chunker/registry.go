package chunker

import (
	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ChunkerRegistry = (*Registry)(nil)

// Registry dispatches documents to the strategy matching their source type.
type Registry struct {
	prose  driven.Chunker
	markup driven.Chunker
}

// NewRegistry creates a registry over the two strategies.
func NewRegistry(prose, markup driven.Chunker) *Registry {
	return &Registry{prose: prose, markup: markup}
}

// NewDefaultRegistry creates a registry with default-sized chunkers.
func NewDefaultRegistry() *Registry {
	return NewRegistry(NewProse(), NewMarkup())
}

// Select returns the chunker for the document's source type.
func (r *Registry) Select(sourceType domain.SourceType) driven.Chunker {
	if sourceType == domain.SourceTypeMarkup {
		return r.markup
	}
	return r.prose
}
