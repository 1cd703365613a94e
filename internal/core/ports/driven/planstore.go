package driven

import (
	"context"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// PlanStore holds generated test plans for the current session so script
// synthesis can resolve a test case id. Plans are not deduplicated across
// requests and are cleared when the knowledge base is rebuilt.
type PlanStore interface {
	// SavePlan stores a plan, indexing its test cases by id.
	SavePlan(ctx context.Context, plan *domain.TestPlan) error

	// GetCase resolves a test case by id. Returns
	// domain.ErrTestCaseNotFound if no stored plan contains it.
	GetCase(ctx context.Context, id string) (*domain.TestCase, error)

	// Clear removes all stored plans.
	Clear(ctx context.Context) error
}
