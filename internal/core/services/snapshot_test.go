package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

func TestSnapshot_ChunkByID(t *testing.T) {
	chunks := typedChunks(domain.SourceTypeSupportDoc, "a.md", 3)
	snap := snapshotWith(chunks)

	ch, ok := snap.ChunkByID("a.md-1")
	require.True(t, ok)
	assert.Equal(t, 1, ch.SequenceIndex)

	_, ok = snap.ChunkByID("missing")
	assert.False(t, ok)
}

func TestSnapshotHolder_Swap(t *testing.T) {
	holder := NewSnapshotHolder()
	assert.Nil(t, holder.Current())

	first := snapshotWith(typedChunks(domain.SourceTypeSupportDoc, "a.md", 1))
	assert.Nil(t, holder.Swap(first))
	assert.Same(t, first, holder.Current())

	second := snapshotWith(typedChunks(domain.SourceTypeMarkup, "b.html", 1))
	assert.Same(t, first, holder.Swap(second))
	assert.Same(t, second, holder.Current())
}

// A reader that pinned a snapshot keeps using it even while swaps happen
// underneath; it never observes a half-built state.
func TestSnapshotHolder_ConcurrentReaders(t *testing.T) {
	holder := NewSnapshotHolder()
	holder.Swap(snapshotWith(typedChunks(domain.SourceTypeSupportDoc, "a.md", 4)))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := holder.Current()
				require.NotNil(t, snap)
				// The pinned snapshot is internally consistent.
				for id := range snap.chunksByID {
					ch, ok := snap.ChunkByID(id)
					require.True(t, ok)
					require.NotNil(t, ch)
				}
				_, err := snap.Index.Search(context.Background(), nil, domain.SourceTypeSupportDoc, 2)
				require.NoError(t, err)
			}
		}()
	}

	for i := 0; i < 100; i++ {
		holder.Swap(snapshotWith(typedChunks(domain.SourceTypeSupportDoc, "a.md", 4)))
	}
	close(stop)
	wg.Wait()
}

func TestWithRetry(t *testing.T) {
	t.Run("returns first success", func(t *testing.T) {
		calls := 0
		result, err := withRetry(context.Background(), 3, 0, func() (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, result)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		result, err := withRetry(context.Background(), 3, 0, func() (string, error) {
			calls++
			if calls < 3 {
				return "", assert.AnError
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error after exhausting attempts", func(t *testing.T) {
		calls := 0
		_, err := withRetry(context.Background(), 3, 0, func() (int, error) {
			calls++
			return 0, assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		_, err := withRetry(ctx, 3, 0, func() (int, error) {
			calls++
			return 0, assert.AnError
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
