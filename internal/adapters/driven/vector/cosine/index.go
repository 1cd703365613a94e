// Package cosine provides an exact cosine-similarity vector index held in
// process memory. An index is built once per knowledge-base build and never
// mutated, which is what makes the atomic snapshot swap safe: readers hold
// a reference to an immutable index while a rebuild constructs the next one.
package cosine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Ensure Builder implements the interface.
var _ driven.VectorIndexBuilder = (*Builder)(nil)

// entry is one indexed chunk with its unit-normalised vector.
type entry struct {
	chunkID        string
	sourceFilename string
	sequenceIndex  int
	vector         []float32
}

// Index is an immutable exact nearest-neighbour index partitioned by
// source type.
type Index struct {
	dimensions int
	partitions map[domain.SourceType][]entry
}

// Builder constructs cosine indexes from embedded chunks.
type Builder struct{}

// NewBuilder creates a new index builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build indexes the chunks. Every chunk must carry an embedding of the same
// dimension.
func (b *Builder) Build(_ context.Context, chunks []domain.Chunk) (driven.VectorIndex, error) {
	idx := &Index{partitions: make(map[domain.SourceType][]entry)}

	for i := range chunks {
		ch := &chunks[i]
		if len(ch.Embedding) == 0 {
			return nil, fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, ch.ID)
		}
		if idx.dimensions == 0 {
			idx.dimensions = len(ch.Embedding)
		}
		if len(ch.Embedding) != idx.dimensions {
			return nil, fmt.Errorf("%w: chunk %s has dimension %d, index has %d",
				domain.ErrInvalidInput, ch.ID, len(ch.Embedding), idx.dimensions)
		}

		idx.partitions[ch.SourceType] = append(idx.partitions[ch.SourceType], entry{
			chunkID:        ch.ID,
			sourceFilename: ch.SourceFilename,
			sequenceIndex:  ch.SequenceIndex,
			vector:         normalise(ch.Embedding),
		})
	}

	return idx, nil
}

// Search finds the k most similar chunks of the given source type.
func (idx *Index) Search(_ context.Context, query []float32, sourceType domain.SourceType, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrInvalidInput, len(query), idx.dimensions)
	}

	part := idx.partitions[sourceType]
	if len(part) == 0 {
		return nil, nil
	}

	q := normalise(query)

	type scored struct {
		entry      *entry
		similarity float64
	}
	results := make([]scored, 0, len(part))
	for i := range part {
		results = append(results, scored{
			entry:      &part[i],
			similarity: dot(q, part[i].vector),
		})
	}

	// Score descending; ties break by ascending sequence index then
	// source filename so repeated searches are order-stable.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].similarity != results[j].similarity {
			return results[i].similarity > results[j].similarity
		}
		if results[i].entry.sequenceIndex != results[j].entry.sequenceIndex {
			return results[i].entry.sequenceIndex < results[j].entry.sequenceIndex
		}
		return results[i].entry.sourceFilename < results[j].entry.sourceFilename
	})

	if k > len(results) {
		k = len(results)
	}
	hits := make([]driven.VectorHit, k)
	for i := 0; i < k; i++ {
		hits[i] = driven.VectorHit{
			ChunkID:    results[i].entry.chunkID,
			Similarity: results[i].similarity,
		}
	}
	return hits, nil
}

// Size returns the number of indexed chunks for a source type.
func (idx *Index) Size(sourceType domain.SourceType) int {
	return len(idx.partitions[sourceType])
}

// normalise returns a unit-length copy of the vector. A zero vector is
// returned as-is; it scores zero against everything.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}

	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// dot computes the inner product of two unit vectors, i.e. their cosine
// similarity.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
