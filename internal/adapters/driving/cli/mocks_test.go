package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockIngestionService struct {
	report  *driving.BuildReport
	status  *driving.BuildStatus
	err     error
	batches [][]domain.IngestionEntry
}

var _ driving.IngestionService = (*mockIngestionService)(nil)

func (m *mockIngestionService) Rebuild(_ context.Context, batch []domain.IngestionEntry) (*driving.BuildReport, error) {
	m.batches = append(m.batches, batch)
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockIngestionService) Status(_ context.Context) (*driving.BuildStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.status, nil
}

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

type mockScriptService struct {
	script *domain.GeneratedScript
	err    error
	cases  []domain.TestCase
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
	m.cases = append(m.cases, tc)
	if m.err != nil {
		return nil, m.err
	}
	script := *m.script
	script.TestCaseID = tc.ID
	return &script, nil
}

// --- Fixtures ---

func testEvidence(filename string, sourceType domain.SourceType, seq int, text string) domain.Evidence {
	return domain.Evidence{
		Chunk: domain.Chunk{
			ID:             filename + "-" + text[:min(4, len(text))],
			SourceFilename: filename,
			SourceType:     sourceType,
			SequenceIndex:  seq,
			Text:           text,
		},
		Score: 0.9,
	}
}

func testPlan() *domain.TestPlan {
	return &domain.TestPlan{
		Viewpoints: []domain.TestViewpoint{"discount code boundaries"},
		TestCases: []domain.TestCase{
			{
				ID:             "TC-001",
				Title:          "Apply a valid discount code",
				Steps:          []string{"Open checkout", "Enter SAVE10", "Click apply"},
				ExpectedResult: "Total drops by 10 percent",
				GroundedIn:     []string{"discounts.md", "checkout.html"},
			},
		},
		Dropped: []domain.DroppedCase{
			{ID: "TC-002", Reason: "cites loyalty.md which is not in the evidence"},
		},
	}
}

func testScript() *domain.GeneratedScript {
	return &domain.GeneratedScript{
		Code:            "driver.find_element(By.ID, \"discount-code\")",
		Selectors:       []string{"discount-code"},
		SourceFilenames: []string{"checkout.html"},
	}
}

// setupTestServices injects mocks for every service and returns a cleanup
// that restores the previous wiring.
func setupTestServices() func() {
	oldIngestion := ingestionService
	oldRetrieval := retrievalService
	oldGeneration := generationService
	oldScript := scriptService

	SetServices(
		&mockIngestionService{
			report: &driving.BuildReport{
				BuildID:          "build-1",
				Documents:        2,
				SupportDocChunks: 3,
				MarkupChunks:     2,
			},
			status: &driving.BuildStatus{
				BuildID:          "build-1",
				BuiltAt:          time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				Documents:        2,
				SupportDocChunks: 3,
				MarkupChunks:     2,
				Usable:           true,
			},
		},
		&mockRetrievalService{
			set: domain.EvidenceSet{
				SupportDocs: []domain.Evidence{
					testEvidence("discounts.md", domain.SourceTypeSupportDoc, 0, "Discount codes reduce the order total."),
				},
				Markup: []domain.Evidence{
					testEvidence("checkout.html", domain.SourceTypeMarkup, 0, `<input id="discount-code">`),
				},
			},
		},
		&mockGenerationService{plan: testPlan()},
		&mockScriptService{script: testScript()},
	)

	return func() {
		SetServices(oldIngestion, oldRetrieval, oldGeneration, oldScript)
	}
}
