package driven

import (
	"context"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// KnowledgeStore persists knowledge-base builds durably.
// Backed by SQLite so the vector index and chunk metadata survive process
// restart, keyed by build identifier.
type KnowledgeStore interface {
	// SaveBuild stores a complete build (metadata, documents, chunks with
	// embeddings) and marks it active, replacing any prior build, in one
	// transaction.
	SaveBuild(ctx context.Context, kb *domain.KnowledgeBase) error

	// LoadActiveBuild retrieves the active build, or domain.ErrNotFound if
	// no build has been persisted.
	LoadActiveBuild(ctx context.Context) (*domain.KnowledgeBase, error)

	// Close releases resources.
	Close() error
}
