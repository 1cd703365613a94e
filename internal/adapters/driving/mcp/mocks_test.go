package mcp

import (
	"context"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockRetrievalService implements driving.RetrievalService.
type mockRetrievalService struct {
	set domain.EvidenceSet
	err error
}

var _ driving.RetrievalService = (*mockRetrievalService)(nil)

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, _, _ int) (domain.EvidenceSet, error) {
	if m.err != nil {
		return domain.EvidenceSet{}, m.err
	}
	set := m.set
	set.Query = query
	return set, nil
}

// mockGenerationService implements driving.GenerationService.
type mockGenerationService struct {
	plan *domain.TestPlan
	err  error
}

var _ driving.GenerationService = (*mockGenerationService)(nil)

func (m *mockGenerationService) GenerateTestCases(_ context.Context, request string) (*domain.TestPlan, error) {
	if m.err != nil {
		return nil, m.err
	}
	plan := *m.plan
	plan.Request = request
	return &plan, nil
}

// mockScriptService implements driving.ScriptService.
type mockScriptService struct {
	script *domain.GeneratedScript
	err    error
}

var _ driving.ScriptService = (*mockScriptService)(nil)

func (m *mockScriptService) GenerateScript(_ context.Context, testCaseID string) (*domain.GeneratedScript, error) {
	if m.err != nil {
		return nil, m.err
	}
	script := *m.script
	script.TestCaseID = testCaseID
	return &script, nil
}

func (m *mockScriptService) GenerateScriptForCase(_ context.Context, tc domain.TestCase) (*domain.GeneratedScript, error) {
	if m.err != nil {
		return nil, m.err
	}
	script := *m.script
	script.TestCaseID = tc.ID
	return &script, nil
}

// mockIngestionService implements driving.IngestionService.
type mockIngestionService struct {
	status *driving.BuildStatus
	err    error
}

var _ driving.IngestionService = (*mockIngestionService)(nil)

func (m *mockIngestionService) Rebuild(_ context.Context, _ []domain.IngestionEntry) (*driving.BuildReport, error) {
	return nil, m.err
}

func (m *mockIngestionService) Status(_ context.Context) (*driving.BuildStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.status, nil
}

// validPorts returns a Ports with all required services mocked.
func validPorts() *Ports {
	return &Ports{
		Retrieval:  &mockRetrievalService{},
		Generation: &mockGenerationService{plan: &domain.TestPlan{}},
		Script:     &mockScriptService{script: &domain.GeneratedScript{}},
	}
}
