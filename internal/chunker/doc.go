// Package chunker splits normalised documents into retrieval-sized chunks.
//
// Two strategies exist because the two source types are consumed
// differently downstream. Prose chunks are packed on paragraph boundaries
// with overlap, optimising for retrievable meaning. Markup chunks are cut
// on element boundaries so each chunk keeps the tags, ids and classes a
// script synthesizer needs to mine selectors from the chunk alone.
//
// Both strategies are deterministic: identical input produces identical
// chunk texts and sequence indexes on every call.
package chunker
