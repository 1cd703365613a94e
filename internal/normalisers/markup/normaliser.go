// Package markup normalises HTML uploads. Unlike the prose normalisers it
// keeps the raw markup as the document content: markup chunks are later
// mined for selectors, so tags and attributes must survive normalisation.
package markup

import (
	"context"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new markup normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

// SourceType returns the source type this normaliser produces.
func (n *Normaliser) SourceType() domain.SourceType {
	return domain.SourceTypeMarkup
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 60 // Markup-specific, above the prose normalisers
}

// Normalise converts an HTML upload into a markup document.
// Content keeps the raw HTML (minus script/style noise) so the markup
// chunker can preserve structural context per chunk.
func (n *Normaliser) Normalise(_ context.Context, entry domain.IngestionEntry) (*domain.Document, error) {
	if entry.Filename == "" {
		return nil, domain.ErrInvalidInput
	}

	raw := string(entry.Content)
	title := extractHTMLTitle(raw, entry.Filename)
	content := stripNoise(raw)

	return &domain.Document{
		ID:       uuid.New().String(),
		Filename: entry.Filename,
		Type:     domain.SourceTypeMarkup,
		Title:    title,
		Content:  content,
		Metadata: map[string]any{
			"format": "html",
		},
		IngestedAt: time.Now(),
	}, nil
}

// Pre-compiled regular expressions for HTML handling.
var (
	titleTag     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// extractHTMLTitle extracts a title from the HTML content or falls back to
// the filename.
func extractHTMLTitle(content, filename string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) > 1 {
		title := strings.TrimSpace(html.UnescapeString(matches[1]))
		if title != "" {
			return title
		}
	}

	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return base
}

// stripNoise removes script bodies, style bodies and comments while leaving
// the document structure intact. Selector-bearing attributes stay put.
func stripNoise(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}
