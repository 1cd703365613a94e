package markdown

import (
	"context"
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

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// SourceType returns the source type this normaliser produces.
func (n *Normaliser) SourceType() domain.SourceType {
	return domain.SourceTypeSupportDoc
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Format-specific normaliser, higher than plaintext
}

// Normalise converts a markdown document to a normalised document.
// The Content field contains the text with markdown formatting simplified;
// code-block content is kept because support docs often carry codes and
// sample values inside fences.
func (n *Normaliser) Normalise(_ context.Context, entry domain.IngestionEntry) (*domain.Document, error) {
	if entry.Filename == "" {
		return nil, domain.ErrInvalidInput
	}

	raw := string(entry.Content)
	title := extractMarkdownTitle(raw, entry.Filename)
	content := stripMarkdown(raw)

	return &domain.Document{
		ID:       uuid.New().String(),
		Filename: entry.Filename,
		Type:     domain.SourceTypeSupportDoc,
		Title:    title,
		Content:  content,
		Metadata: map[string]any{
			"format": "markdown",
		},
		IngestedAt: time.Now(),
	}, nil
}

// extractMarkdownTitle extracts a title from the first H1 heading or falls
// back to the filename.
func extractMarkdownTitle(content, filename string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
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

// Pre-compiled regular expressions for markdown stripping.
var (
	codeFence    = regexp.MustCompile("(?m)^```[^\n]*$")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquote   = regexp.MustCompile(`(?m)^>\s*`)
	hr           = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common markdown formatting for plain text content.
// This is a simplified implementation that handles common cases.
func stripMarkdown(content string) string {
	// Drop fence lines but keep the fenced content
	content = codeFence.ReplaceAllString(content, "")

	// Unwrap inline code (`code` -> code)
	content = inlineCode.ReplaceAllString(content, "$1")

	// Remove images ![alt](url)
	content = images.ReplaceAllString(content, "")

	// Convert links [text](url) to just text
	content = links.ReplaceAllString(content, "$1")

	// Remove heading markers (# ## ### etc)
	content = headings.ReplaceAllString(content, "")

	// Remove bold/italic markers
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")

	// Remove blockquote markers
	content = blockquote.ReplaceAllString(content, "")

	// Remove horizontal rules
	content = hr.ReplaceAllString(content, "")

	// Remove list markers (- * + and numbered)
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")

	// Collapse multiple newlines
	content = multiNewline.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
