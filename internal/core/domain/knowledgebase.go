package domain

import "time"

// KnowledgeBase is the complete set of chunks for one ingestion build plus
// build metadata. It is immutable: a rebuild produces a fresh KnowledgeBase
// and the active one is swapped atomically.
type KnowledgeBase struct {
	// BuildID identifies this build, used as the persistence key.
	BuildID string

	// BuiltAt is when the build completed.
	BuiltAt time.Time

	// Dimensions is the embedding vector size for every chunk in the build.
	Dimensions int

	// Documents maps filename to the ingested document.
	Documents map[string]Document

	// Chunks holds every chunk of the build, ordered by filename then
	// sequence index.
	Chunks []Chunk

	// Warnings records per-document ingestion problems that did not fail
	// the build (e.g. a document that produced zero chunks).
	Warnings []string
}

// CountByType returns the number of chunks with the given source type.
func (kb *KnowledgeBase) CountByType(t SourceType) int {
	n := 0
	for i := range kb.Chunks {
		if kb.Chunks[i].SourceType == t {
			n++
		}
	}
	return n
}

// Usable reports whether the knowledge base can serve generation requests.
// It needs at least one support_doc chunk and one markup chunk; anything
// less is an incomplete build.
func (kb *KnowledgeBase) Usable() bool {
	if kb == nil {
		return false
	}
	return kb.CountByType(SourceTypeSupportDoc) > 0 && kb.CountByType(SourceTypeMarkup) > 0
}

// HasDocument reports whether a filename was part of this build.
func (kb *KnowledgeBase) HasDocument(filename string) bool {
	_, ok := kb.Documents[filename]
	return ok
}

// IngestionEntry is one (filename, content, declared type) tuple presented
// at the ingestion boundary.
type IngestionEntry struct {
	// Filename is the uploaded name; it becomes the provenance key.
	Filename string

	// Content is the raw bytes or text of the upload.
	Content []byte

	// DeclaredType is the caller-declared source type. When empty the
	// type is derived from the filename extension.
	DeclaredType SourceType
}
