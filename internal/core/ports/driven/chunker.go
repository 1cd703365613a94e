package driven

import (
	"context"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// Chunker splits a document into retrieval-sized, source-tagged chunks.
//
// Chunking is deterministic: identical input yields identical chunk
// boundaries, texts, and SequenceIndex values on every call. Chunk IDs are
// the only non-deterministic output (fresh uuids per build).
//
// An empty or unparseable document yields zero chunks and a nil error;
// whether that fails the build is the ingestion service's decision.
type Chunker interface {
	// Chunk splits the document. Returned chunks carry DocumentID,
	// SourceFilename, SourceType and SequenceIndex; embeddings are
	// populated later by the indexer.
	Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}

// ChunkerRegistry selects the chunking strategy for a document.
// Prose and markup use different strategies: prose chunks are packed on
// semantic boundaries for meaning, markup chunks preserve structural context
// because they are later mined for selectors.
type ChunkerRegistry interface {
	// Select returns the chunker for the document's source type.
	Select(sourceType domain.SourceType) Chunker
}
