package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testBuild(id string) *domain.KnowledgeBase {
	return &domain.KnowledgeBase{
		BuildID:    id,
		BuiltAt:    time.Now().UTC().Truncate(time.Second),
		Dimensions: 4,
		Documents: map[string]domain.Document{
			"discounts.md": {
				ID:         "doc-1",
				Filename:   "discounts.md",
				Type:       domain.SourceTypeSupportDoc,
				Title:      "Discount Codes",
				Content:    "SAVE15 grants 15 percent off.",
				IngestedAt: time.Now().UTC().Truncate(time.Second),
			},
			"checkout.html": {
				ID:       "doc-2",
				Filename: "checkout.html",
				Type:     domain.SourceTypeMarkup,
				Title:    "Checkout",
				Content:  `<form id="checkout-form"></form>`,
			},
		},
		Chunks: []domain.Chunk{
			{
				ID:             "chunk-1",
				DocumentID:     "doc-2",
				SourceFilename: "checkout.html",
				SourceType:     domain.SourceTypeMarkup,
				SequenceIndex:  0,
				Text:           `<form id="checkout-form"></form>`,
				Embedding:      []float32{0.1, -0.5, 3.25, 0},
				Metadata: map[string]any{
					domain.MetaSelectorIDs: []string{"checkout-form"},
				},
			},
			{
				ID:             "chunk-2",
				DocumentID:     "doc-1",
				SourceFilename: "discounts.md",
				SourceType:     domain.SourceTypeSupportDoc,
				SequenceIndex:  0,
				Text:           "SAVE15 grants 15 percent off.",
				Embedding:      []float32{1, 2, 3, 4},
			},
		},
		Warnings: []string{"document \"empty.txt\" produced no chunks"},
	}
}

func TestStore_SaveAndLoadBuild(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBuild(ctx, testBuild("build-1")))

	loaded, err := store.LoadActiveBuild(ctx)
	require.NoError(t, err)

	assert.Equal(t, "build-1", loaded.BuildID)
	assert.Equal(t, 4, loaded.Dimensions)
	assert.Equal(t, []string{"document \"empty.txt\" produced no chunks"}, loaded.Warnings)

	require.Len(t, loaded.Documents, 2)
	doc := loaded.Documents["discounts.md"]
	assert.Equal(t, domain.SourceTypeSupportDoc, doc.Type)
	assert.Equal(t, "Discount Codes", doc.Title)

	// Chunks come back ordered by filename then sequence.
	require.Len(t, loaded.Chunks, 2)
	assert.Equal(t, "checkout.html", loaded.Chunks[0].SourceFilename)
	assert.Equal(t, []float32{0.1, -0.5, 3.25, 0}, loaded.Chunks[0].Embedding)
	assert.Equal(t, []string{"checkout-form"}, loaded.Chunks[0].StringsMeta(domain.MetaSelectorIDs))
	assert.Equal(t, "discounts.md", loaded.Chunks[1].SourceFilename)

	assert.True(t, loaded.Usable())
}

func TestStore_SaveBuildReplacesPrior(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBuild(ctx, testBuild("build-1")))
	require.NoError(t, store.SaveBuild(ctx, testBuild("build-2")))

	loaded, err := store.LoadActiveBuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, "build-2", loaded.BuildID)

	// The prior build's rows are gone, not just inactive.
	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM builds").Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestStore_LoadActiveBuildEmpty(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadActiveBuild(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SaveBuildRejectsMissingID(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveBuild(context.Background(), &domain.KnowledgeBase{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFloat32Bytes_RoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3e7}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.Equal(t, in, out)

	assert.Nil(t, bytesToFloat32Slice(nil))
}
