// Package domain defines the core business entities for the testing brain.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested artifact (support doc or markup) with metadata
//   - Chunk: A retrieval-sized slice of a document with provenance
//   - KnowledgeBase: One immutable ingestion build plus its metadata
//   - EvidenceSet: Ranked, deduplicated retrieval output
//   - TestPlan / TestCase: Grounded generation output
//   - GeneratedScript: A selector-validated automation script
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
