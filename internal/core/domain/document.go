package domain

import "time"

// SourceType classifies an ingested document.
// The knowledge base needs both types before it can serve generation:
// support documents supply behaviour to test, markup supplies the
// selectors an automation script can bind to.
type SourceType string

const (
	// SourceTypeSupportDoc is prose documentation (MD, TXT, JSON, PDF text).
	SourceTypeSupportDoc SourceType = "support_doc"

	// SourceTypeMarkup is the HTML page under test.
	SourceTypeMarkup SourceType = "markup"
)

// Valid reports whether the source type is one of the known values.
func (t SourceType) Valid() bool {
	return t == SourceTypeSupportDoc || t == SourceTypeMarkup
}

// Document represents one ingested artifact after normalisation.
// Documents are immutable once ingested; a rebuild replaces them all.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the uploaded name, e.g. "checkout.html".
	// Chunks and generated artifacts refer back to documents by filename.
	Filename string

	// Type tags the document as support_doc or markup.
	Type SourceType

	// Title is the human-readable title (HTML <title>, first heading, or
	// the filename).
	Title string

	// Content is the text the chunker consumes. For support documents this
	// is the normalised prose; for markup it is the raw HTML, since markup
	// chunks must preserve tags and attributes for selector mining.
	Content string

	// Metadata contains normaliser-specific key-value pairs.
	Metadata map[string]any

	// IngestedAt is when the document entered the current build.
	IngestedAt time.Time
}

// Chunk is a retrieval-sized slice of a document with provenance.
type Chunk struct {
	// ID is the unique identifier for the chunk within the build.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// SourceFilename is the filename of the document this chunk came from.
	// It is provenance, not ownership: generated artifacts cite filenames.
	SourceFilename string

	// SourceType mirrors the document's type so retrieval can run
	// independent per-type searches without a document lookup.
	SourceType SourceType

	// SequenceIndex is the chunk's position within its document. It gives
	// deterministic ordering for score ties.
	SequenceIndex int

	// Text is the chunk content handed to the embedder and the prompt.
	Text string

	// Embedding is the fixed-dimension vector representation.
	Embedding []float32

	// Metadata carries chunker-specific values. Markup chunks store their
	// selector inventory here (ids, names, classes).
	Metadata map[string]any
}

// Markup chunk metadata keys populated by the markup chunker.
const (
	// MetaSelectorIDs holds the id attribute values found in a markup chunk.
	MetaSelectorIDs = "selector_ids"

	// MetaSelectorNames holds the name attribute values found in a markup chunk.
	MetaSelectorNames = "selector_names"

	// MetaSelectorClasses holds the class names found in a markup chunk.
	MetaSelectorClasses = "selector_classes"
)

// StringsMeta reads a []string metadata value, tolerating the []any shape
// that survives a JSON round-trip through the store.
func (c Chunk) StringsMeta(key string) []string {
	val, ok := c.Metadata[key]
	if !ok {
		return nil
	}
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
