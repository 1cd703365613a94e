package cosine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

func chunk(id string, sourceType domain.SourceType, seq int, embedding []float32) domain.Chunk {
	return domain.Chunk{
		ID:             id,
		SourceFilename: id + ".src",
		SourceType:     sourceType,
		SequenceIndex:  seq,
		Embedding:      embedding,
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Run("partitions chunks by source type", func(t *testing.T) {
		idx, err := NewBuilder().Build(context.Background(), []domain.Chunk{
			chunk("d1", domain.SourceTypeSupportDoc, 0, []float32{1, 0}),
			chunk("d2", domain.SourceTypeSupportDoc, 1, []float32{0, 1}),
			chunk("m1", domain.SourceTypeMarkup, 0, []float32{1, 1}),
		})
		require.NoError(t, err)

		cosIdx := idx.(*Index)
		assert.Equal(t, 2, cosIdx.Size(domain.SourceTypeSupportDoc))
		assert.Equal(t, 1, cosIdx.Size(domain.SourceTypeMarkup))
	})

	t.Run("rejects chunk without embedding", func(t *testing.T) {
		_, err := NewBuilder().Build(context.Background(), []domain.Chunk{
			chunk("d1", domain.SourceTypeSupportDoc, 0, nil),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects mixed dimensions", func(t *testing.T) {
		_, err := NewBuilder().Build(context.Background(), []domain.Chunk{
			chunk("d1", domain.SourceTypeSupportDoc, 0, []float32{1, 0}),
			chunk("d2", domain.SourceTypeSupportDoc, 1, []float32{1, 0, 0}),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestIndex_Search(t *testing.T) {
	idx, err := NewBuilder().Build(context.Background(), []domain.Chunk{
		chunk("exact", domain.SourceTypeSupportDoc, 0, []float32{1, 0}),
		chunk("orthogonal", domain.SourceTypeSupportDoc, 1, []float32{0, 1}),
		chunk("diagonal", domain.SourceTypeSupportDoc, 2, []float32{1, 1}),
		chunk("markup", domain.SourceTypeMarkup, 0, []float32{1, 0}),
	})
	require.NoError(t, err)

	t.Run("ranks by cosine similarity", func(t *testing.T) {
		hits, err := idx.Search(context.Background(), []float32{1, 0}, domain.SourceTypeSupportDoc, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)

		assert.Equal(t, "exact", hits[0].ChunkID)
		assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
		assert.Equal(t, "diagonal", hits[1].ChunkID)
		assert.Equal(t, "orthogonal", hits[2].ChunkID)
	})

	t.Run("only searches the requested partition", func(t *testing.T) {
		hits, err := idx.Search(context.Background(), []float32{1, 0}, domain.SourceTypeMarkup, 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "markup", hits[0].ChunkID)
	})

	t.Run("caps k at partition size", func(t *testing.T) {
		hits, err := idx.Search(context.Background(), []float32{1, 0}, domain.SourceTypeSupportDoc, 50)
		require.NoError(t, err)
		assert.Len(t, hits, 3)
	})

	t.Run("zero k returns nothing", func(t *testing.T) {
		hits, err := idx.Search(context.Background(), []float32{1, 0}, domain.SourceTypeSupportDoc, 0)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("empty partition returns nothing", func(t *testing.T) {
		hits, err := idx.Search(context.Background(), []float32{1, 0}, domain.SourceType("other"), 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("rejects mismatched query dimension", func(t *testing.T) {
		_, err := idx.Search(context.Background(), []float32{1, 0, 0}, domain.SourceTypeSupportDoc, 5)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("equal scores tie-break by sequence then filename", func(t *testing.T) {
		// All three chunks carry the same vector, so every similarity is
		// identical and only the tie-break decides the order.
		tieIdx, err := NewBuilder().Build(context.Background(), []domain.Chunk{
			chunk("zulu", domain.SourceTypeSupportDoc, 2, []float32{1, 1}),
			chunk("bravo", domain.SourceTypeSupportDoc, 1, []float32{1, 1}),
			chunk("alpha", domain.SourceTypeSupportDoc, 1, []float32{1, 1}),
		})
		require.NoError(t, err)

		hits, err := tieIdx.Search(context.Background(), []float32{1, 1}, domain.SourceTypeSupportDoc, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)

		assert.InDelta(t, hits[0].Similarity, hits[1].Similarity, 1e-9)
		assert.InDelta(t, hits[1].Similarity, hits[2].Similarity, 1e-9)

		// Sequence 1 before sequence 2; within sequence 1, alpha.src
		// before bravo.src.
		assert.Equal(t, "alpha", hits[0].ChunkID)
		assert.Equal(t, "bravo", hits[1].ChunkID)
		assert.Equal(t, "zulu", hits[2].ChunkID)
	})

	t.Run("deterministic across repeated searches", func(t *testing.T) {
		first, err := idx.Search(context.Background(), []float32{3, 4}, domain.SourceTypeSupportDoc, 3)
		require.NoError(t, err)
		second, err := idx.Search(context.Background(), []float32{3, 4}, domain.SourceTypeSupportDoc, 3)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestNormalise_ZeroVector(t *testing.T) {
	out := normalise([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, out)
}
