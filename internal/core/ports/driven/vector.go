package driven

import (
	"context"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// VectorIndex provides similarity search over one knowledge-base build.
// An index is immutable once built; a rebuild constructs a fresh index and
// the active one is swapped atomically with its snapshot.
type VectorIndex interface {
	// Search finds the k most similar chunks of the given source type.
	// Results are ordered by similarity descending; ties break by ascending
	// SequenceIndex then SourceFilename so identical queries return
	// identical orderings.
	Search(ctx context.Context, query []float32, sourceType domain.SourceType, k int) ([]VectorHit, error)

	// Size returns the number of indexed chunks for a source type.
	Size(sourceType domain.SourceType) int
}

// VectorIndexBuilder constructs a VectorIndex from embedded chunks.
type VectorIndexBuilder interface {
	// Build indexes the chunks. Every chunk must carry an embedding of the
	// same dimension; a mismatch is an error.
	Build(ctx context.Context, chunks []domain.Chunk) (VectorIndex, error)
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (-1 to 1).
	Similarity float64
}
