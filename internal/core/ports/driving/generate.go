package driving

import (
	"context"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// GenerationService produces grounded test plans.
type GenerationService interface {
	// GenerateTestCases retrieves evidence for the request, prompts the
	// completion service, and returns the plan of cases that survived
	// grounding validation. Invalid cases are dropped with recorded
	// reasons; an empty surviving set is domain.ErrNoValidOutput.
	GenerateTestCases(ctx context.Context, request string) (*domain.TestPlan, error)
}

// ScriptService synthesises selector-validated automation scripts.
type ScriptService interface {
	// GenerateScript synthesises a script for a stored test case id.
	// Every selector the script references is checked against the markup
	// evidence retrieved for this synthesis; one retry with expanded
	// markup retrieval is attempted before the request fails with
	// domain.ErrSelectorValidation.
	GenerateScript(ctx context.Context, testCaseID string) (*domain.GeneratedScript, error)

	// GenerateScriptForCase synthesises a script for a caller-supplied
	// test case, bypassing the session plan store. Used when the plan was
	// persisted externally (e.g. a plan file).
	GenerateScriptForCase(ctx context.Context, tc domain.TestCase) (*domain.GeneratedScript, error)
}
