package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

func TestNormalise(t *testing.T) {
	n := New()

	t.Run("strips formatting but keeps text", func(t *testing.T) {
		raw := "# Discounts\n\nUse **SAVE15** for `15%` off. See [terms](https://example.com/terms).\n\n- code is case-sensitive\n- one use per order\n"

		doc, err := n.Normalise(context.Background(), domain.IngestionEntry{
			Filename: "discounts.md",
			Content:  []byte(raw),
		})
		require.NoError(t, err)

		assert.Equal(t, "Discounts", doc.Title)
		assert.Equal(t, domain.SourceTypeSupportDoc, doc.Type)
		assert.Contains(t, doc.Content, "Use SAVE15 for 15% off.")
		assert.Contains(t, doc.Content, "See terms.")
		assert.Contains(t, doc.Content, "code is case-sensitive")
		assert.NotContains(t, doc.Content, "**")
		assert.NotContains(t, doc.Content, "](")
	})

	t.Run("keeps fenced code content", func(t *testing.T) {
		raw := "# Setup\n\n```bash\nexport DISCOUNT=SAVE15\n```\n"

		doc, err := n.Normalise(context.Background(), domain.IngestionEntry{
			Filename: "setup.md",
			Content:  []byte(raw),
		})
		require.NoError(t, err)

		assert.Contains(t, doc.Content, "export DISCOUNT=SAVE15")
		assert.NotContains(t, doc.Content, "```")
	})

	t.Run("title falls back to filename", func(t *testing.T) {
		doc, err := n.Normalise(context.Background(), domain.IngestionEntry{
			Filename: "release_notes.md",
			Content:  []byte("no heading here"),
		})
		require.NoError(t, err)
		assert.Equal(t, "release notes", doc.Title)
	})

	t.Run("empty filename is invalid", func(t *testing.T) {
		_, err := n.Normalise(context.Background(), domain.IngestionEntry{Content: []byte("x")})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestStripMarkdown_Images(t *testing.T) {
	out := stripMarkdown("before ![diagram](img.png) after")
	assert.Equal(t, "before  after", out)
}
