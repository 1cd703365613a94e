package driving

import (
	"context"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// RetrievalService returns ranked evidence for a query.
type RetrievalService interface {
	// Retrieve embeds the query once and runs two independent top-k
	// similarity searches, one per source type, so neither lane can starve
	// the other. An empty lane is a valid outcome, not an error.
	Retrieve(ctx context.Context, query string, kDocs, kMarkup int) (domain.EvidenceSet, error)
}
