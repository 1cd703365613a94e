package chunker

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// DefaultMaxChunkSize is the default maximum chunk size in characters.
const DefaultMaxChunkSize = 1200

// DefaultOverlap is the default overlap carried between adjacent chunks.
const DefaultOverlap = 150

// Ensure Prose implements the interface.
var _ driven.Chunker = (*Prose)(nil)

// Prose splits prose documents on paragraph boundaries, packing paragraphs
// up to the maximum size and carrying an overlap between adjacent chunks so
// a fact split across a boundary is still retrievable from at least one
// chunk.
type Prose struct {
	maxSize int
	overlap int
}

// Option configures a chunker.
type Option func(*config)

type config struct {
	maxSize int
	overlap int
}

// WithMaxSize sets the maximum chunk size in characters.
func WithMaxSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *config) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// NewProse creates a prose chunker with the given options.
func NewProse(opts ...Option) *Prose {
	cfg := config{maxSize: DefaultMaxChunkSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Overlap must leave room for the window to advance
	if cfg.overlap >= cfg.maxSize {
		cfg.overlap = cfg.maxSize / 4
	}

	return &Prose{maxSize: cfg.maxSize, overlap: cfg.overlap}
}

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// Chunk splits the document content into chunks.
func (p *Prose) Chunk(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	text := strings.TrimSpace(doc.Content)
	if text == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	var texts []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			texts = append(texts, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// A paragraph that cannot fit in one chunk is window-split on
		// its own.
		if len(para) > p.maxSize {
			flush()
			texts = append(texts, windowSplit(para, p.maxSize, p.overlap)...)
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > p.maxSize {
			tail := overlapTail(current.String(), p.overlap)
			flush()
			if tail != "" {
				current.WriteString(tail)
				current.WriteString("\n\n")
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return buildChunks(doc, texts), nil
}

// windowSplit cuts text into fixed windows with overlap.
func windowSplit(text string, size, overlap int) []string {
	var out []string
	step := size - overlap
	if step <= 0 {
		step = size
	}

	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, strings.TrimSpace(text[start:end]))
		if end == len(text) {
			break
		}
	}
	return out
}

// overlapTail returns the last portion of text up to overlap characters,
// aligned to a word boundary so the carried text reads naturally.
func overlapTail(text string, overlap int) string {
	if overlap <= 0 || text == "" {
		return ""
	}
	if len(text) <= overlap {
		return text
	}

	tail := text[len(text)-overlap:]
	if idx := strings.IndexAny(tail, " \n\t"); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}

// buildChunks wraps chunk texts in domain.Chunk with provenance.
func buildChunks(doc *domain.Document, texts []string) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:             uuid.New().String(),
			DocumentID:     doc.ID,
			SourceFilename: doc.Filename,
			SourceType:     doc.Type,
			SequenceIndex:  i,
			Text:           text,
			Metadata:       make(map[string]any),
		})
	}
	return chunks
}
