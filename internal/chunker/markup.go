package chunker

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// Ensure Markup implements the interface.
var _ driven.Chunker = (*Markup)(nil)

// Markup splits an HTML document into element-scoped chunks. Each chunk is
// the raw markup of one region (form, section, table, an id-carrying div),
// so tag names, id/name/class attributes and nearby text survive in the
// chunk text. A selector inventory per chunk is mined into metadata for
// the script synthesizer's validation step.
type Markup struct {
	maxSize int
	overlap int
}

// NewMarkup creates a markup chunker with the given options.
func NewMarkup(opts ...Option) *Markup {
	cfg := config{maxSize: DefaultMaxChunkSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.overlap >= cfg.maxSize {
		cfg.overlap = cfg.maxSize / 4
	}
	return &Markup{maxSize: cfg.maxSize, overlap: cfg.overlap}
}

// Region boundaries: container elements that scope an interaction area,
// plus any div carrying an id.
var (
	regionStart = regexp.MustCompile(`(?i)<(form|section|table|fieldset|header|footer|nav|main|article|aside)[\s>]|<div[^>]*\bid\s*=`)
	openingTag  = regexp.MustCompile(`(?s)^<[^>]+>`)

	idAttr    = regexp.MustCompile(`(?i)\bid\s*=\s*["']([^"']+)["']`)
	nameAttr  = regexp.MustCompile(`(?i)\bname\s*=\s*["']([^"']+)["']`)
	classAttr = regexp.MustCompile(`(?i)\bclass\s*=\s*["']([^"']+)["']`)
)

// Chunk splits the document's raw markup into region chunks.
func (m *Markup) Chunk(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	content := strings.TrimSpace(doc.Content)
	if content == "" {
		return nil, nil
	}

	texts := m.splitRegions(content)

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:             uuid.New().String(),
			DocumentID:     doc.ID,
			SourceFilename: doc.Filename,
			SourceType:     doc.Type,
			SequenceIndex:  i,
			Text:           text,
			Metadata:       selectorInventory(text),
		})
	}
	return chunks, nil
}

// splitRegions cuts markup at region boundaries, window-splitting any
// region that exceeds the maximum size. Continuation windows are prefixed
// with the region's opening tag so structural context is never lost.
func (m *Markup) splitRegions(content string) []string {
	bounds := regionStart.FindAllStringIndex(content, -1)

	var regions []string
	prev := 0
	for _, b := range bounds {
		if b[0] > prev {
			if lead := strings.TrimSpace(content[prev:b[0]]); lead != "" {
				regions = append(regions, lead)
			}
		}
		prev = b[0]
	}
	if tail := strings.TrimSpace(content[prev:]); tail != "" {
		regions = append(regions, tail)
	}

	var out []string
	for _, region := range regions {
		if len(region) <= m.maxSize {
			out = append(out, region)
			continue
		}

		context := openingTag.FindString(region)
		for i, window := range windowSplit(region, m.maxSize, m.overlap) {
			if i > 0 && context != "" && !strings.HasPrefix(window, context) {
				window = context + "\n" + window
			}
			out = append(out, window)
		}
	}
	return out
}

// selectorInventory mines id, name and class attribute values from a
// markup fragment.
func selectorInventory(fragment string) map[string]any {
	meta := make(map[string]any)

	if ids := mineAttr(idAttr, fragment, false); len(ids) > 0 {
		meta[domain.MetaSelectorIDs] = ids
	}
	if names := mineAttr(nameAttr, fragment, false); len(names) > 0 {
		meta[domain.MetaSelectorNames] = names
	}
	if classes := mineAttr(classAttr, fragment, true); len(classes) > 0 {
		meta[domain.MetaSelectorClasses] = classes
	}
	return meta
}

// mineAttr collects attribute values in document order without duplicates.
// When split is true the value is treated as a space-separated list
// (class attributes).
func mineAttr(re *regexp.Regexp, fragment string, split bool) []string {
	seen := make(map[string]struct{})
	var out []string

	for _, match := range re.FindAllStringSubmatch(fragment, -1) {
		values := []string{match[1]}
		if split {
			values = strings.Fields(match[1])
		}
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
