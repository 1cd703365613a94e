// Package sqlite provides the SQLite-backed KnowledgeStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Embeddings are stored as
// little-endian float32 BLOBs alongside chunk text and metadata, so the
// active build can be reloaded and re-indexed on startup without touching
// the embedding service.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files.
//
// # Data Location
//
// By default, the database is stored at ~/.testbrain/data/knowledge.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
