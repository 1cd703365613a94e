package domain

// Evidence is a single retrieved chunk annotated with its similarity score.
type Evidence struct {
	// Chunk is the retrieved chunk, provenance included.
	Chunk Chunk

	// Score is the cosine similarity between the query and the chunk.
	Score float64
}

// EvidenceSet is the ranked, deduplicated output of a retrieval request.
// Items are ordered by score descending; ties break by ascending
// SequenceIndex then SourceFilename so repeated calls return identical
// orderings against an unchanged knowledge base.
type EvidenceSet struct {
	// Query is the text the set was retrieved for.
	Query string

	// SupportDocs are the top-k support_doc hits.
	SupportDocs []Evidence

	// Markup are the top-k markup hits.
	Markup []Evidence
}

// All returns the combined evidence, support documents first.
func (e EvidenceSet) All() []Evidence {
	out := make([]Evidence, 0, len(e.SupportDocs)+len(e.Markup))
	out = append(out, e.SupportDocs...)
	out = append(out, e.Markup...)
	return out
}

// SourceFilenames returns the distinct filenames present in the set, in
// first-appearance order. Generated artifacts may only cite these.
func (e EvidenceSet) SourceFilenames() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ev := range e.All() {
		name := ev.Chunk.SourceFilename
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// HasSource reports whether the given filename contributed evidence.
func (e EvidenceSet) HasSource(filename string) bool {
	for _, ev := range e.All() {
		if ev.Chunk.SourceFilename == filename {
			return true
		}
	}
	return false
}
