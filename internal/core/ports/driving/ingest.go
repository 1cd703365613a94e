package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// IngestionService builds the knowledge base from a batch of uploads.
type IngestionService interface {
	// Rebuild ingests the batch as a single logical transaction: chunk,
	// embed, persist, then atomically swap the active knowledge base.
	// The batch is rejected whole (domain.ErrIngestionIncomplete) if it
	// lacks at least one support_doc and one markup entry; the prior
	// knowledge base stays active on any failure.
	Rebuild(ctx context.Context, batch []domain.IngestionEntry) (*BuildReport, error)

	// Status describes the active knowledge base, or
	// domain.ErrNotFound if none has been built.
	Status(ctx context.Context) (*BuildStatus, error)
}

// BuildReport summarises a completed rebuild.
type BuildReport struct {
	// BuildID identifies the new build.
	BuildID string

	// Documents is the number of documents ingested.
	Documents int

	// SupportDocChunks is the number of support_doc chunks indexed.
	SupportDocChunks int

	// MarkupChunks is the number of markup chunks indexed.
	MarkupChunks int

	// Warnings lists per-document problems that did not fail the build.
	Warnings []string
}

// BuildStatus describes the active knowledge base.
type BuildStatus struct {
	// BuildID identifies the active build.
	BuildID string

	// BuiltAt is when the build completed.
	BuiltAt time.Time

	// Documents is the number of documents in the build.
	Documents int

	// SupportDocChunks is the number of support_doc chunks.
	SupportDocChunks int

	// MarkupChunks is the number of markup chunks.
	MarkupChunks int

	// Usable reports whether the build can serve generation requests.
	Usable bool
}
