// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Normaliser: Transforms raw uploads into document form
//   - NormaliserRegistry: Selects the normaliser for a filename
//   - Chunker: Splits documents into retrieval-sized chunks
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndexBuilder: Builds the per-build similarity index
//   - KnowledgeStore: Durable persistence of builds, documents and chunks
//   - CompletionService: Text completion backend for generation
//   - PlanStore: Session-scoped test plan storage
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, normaliser, or chunker package
package driven
