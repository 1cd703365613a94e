package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

func proseDoc(content string) *domain.Document {
	return &domain.Document{
		ID:       "doc-1",
		Filename: "discounts.md",
		Type:     domain.SourceTypeSupportDoc,
		Content:  content,
	}
}

func TestProse_Chunk(t *testing.T) {
	t.Run("short document is one chunk", func(t *testing.T) {
		chunks, err := NewProse().Chunk(context.Background(), proseDoc("Discount codes reduce the order total."))
		require.NoError(t, err)
		require.Len(t, chunks, 1)

		assert.Equal(t, "Discount codes reduce the order total.", chunks[0].Text)
		assert.Equal(t, "discounts.md", chunks[0].SourceFilename)
		assert.Equal(t, domain.SourceTypeSupportDoc, chunks[0].SourceType)
		assert.Equal(t, 0, chunks[0].SequenceIndex)
	})

	t.Run("empty document produces no chunks", func(t *testing.T) {
		chunks, err := NewProse().Chunk(context.Background(), proseDoc("   \n\n  "))
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("nil document is invalid", func(t *testing.T) {
		_, err := NewProse().Chunk(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("packs paragraphs up to the size limit", func(t *testing.T) {
		para := strings.Repeat("word ", 30) // ~150 chars
		content := strings.Join([]string{para, para, para, para}, "\n\n")

		chunks, err := NewProse(WithMaxSize(320), WithOverlap(0)).Chunk(context.Background(), proseDoc(content))
		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)

		for _, ch := range chunks {
			assert.LessOrEqual(t, len(ch.Text), 320)
		}
	})

	t.Run("sequence indices are consecutive", func(t *testing.T) {
		para := strings.Repeat("alpha beta gamma ", 20)
		content := strings.Join([]string{para, para, para}, "\n\n")

		chunks, err := NewProse(WithMaxSize(200), WithOverlap(40)).Chunk(context.Background(), proseDoc(content))
		require.NoError(t, err)
		for i, ch := range chunks {
			assert.Equal(t, i, ch.SequenceIndex)
		}
	})

	t.Run("overlap carries tail text into the next chunk", func(t *testing.T) {
		first := strings.Repeat("aaaa ", 30) + "needle"
		second := strings.Repeat("bbbb ", 30)

		chunks, err := NewProse(WithMaxSize(180), WithOverlap(60)).Chunk(context.Background(), proseDoc(first+"\n\n"+second))
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(chunks), 2)

		assert.Contains(t, chunks[0].Text, "needle")
		assert.Contains(t, chunks[1].Text, "needle")
	})

	t.Run("oversized paragraph is window split", func(t *testing.T) {
		chunks, err := NewProse(WithMaxSize(100), WithOverlap(20)).
			Chunk(context.Background(), proseDoc(strings.Repeat("x", 500)))
		require.NoError(t, err)
		assert.Greater(t, len(chunks), 1)
	})

	t.Run("deterministic text output", func(t *testing.T) {
		content := strings.Join([]string{
			strings.Repeat("first paragraph ", 10),
			strings.Repeat("second paragraph ", 10),
			strings.Repeat("third paragraph ", 10),
		}, "\n\n")

		p := NewProse(WithMaxSize(250), WithOverlap(50))
		first, err := p.Chunk(context.Background(), proseDoc(content))
		require.NoError(t, err)
		second, err := p.Chunk(context.Background(), proseDoc(content))
		require.NoError(t, err)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].Text, second[i].Text)
			assert.Equal(t, first[i].SequenceIndex, second[i].SequenceIndex)
		}
	})
}

func TestOverlapTail(t *testing.T) {
	t.Run("aligns to word boundary", func(t *testing.T) {
		tail := overlapTail("the quick brown fox jumps", 10)
		assert.Equal(t, "fox jumps", tail)
	})

	t.Run("short text returned whole", func(t *testing.T) {
		assert.Equal(t, "abc", overlapTail("abc", 10))
	})

	t.Run("zero overlap returns nothing", func(t *testing.T) {
		assert.Empty(t, overlapTail("the quick brown fox", 0))
	})
}

func TestRegistry_Select(t *testing.T) {
	reg := NewDefaultRegistry()

	assert.IsType(t, &Markup{}, reg.Select(domain.SourceTypeMarkup))
	assert.IsType(t, &Prose{}, reg.Select(domain.SourceTypeSupportDoc))
	assert.IsType(t, &Prose{}, reg.Select(domain.SourceType("")))
}
