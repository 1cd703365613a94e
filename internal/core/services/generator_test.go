package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

const planResponse = "```json\n" + `{
  "viewpoints": ["Discount code validation", "Boundary values", "Error messaging"],
  "test_cases": [
    {
      "id": "TC-001",
      "title": "Valid discount code applies 15 percent",
      "preconditions": "Cart contains at least one item",
      "steps": ["Enter SAVE15 in the discount field", "Click Apply"],
      "expected_result": "Order total is reduced by 15 percent",
      "grounded_in": ["discounts.md"]
    },
    {
      "id": "TC-002",
      "title": "Expired code shows error",
      "preconditions": "",
      "steps": ["Enter an expired code", "Click Apply"],
      "expected_result": "The message \"Code expired\" is shown",
      "grounded_in": ["discounts.md", "checkout.html"]
    },
    {
      "id": "TC-003",
      "title": "Invented loyalty points are awarded",
      "preconditions": "",
      "steps": ["Complete a purchase"],
      "expected_result": "Loyalty points appear",
      "grounded_in": ["loyalty.md"]
    },
    {
      "id": "TC-004",
      "title": "Case with no citations",
      "preconditions": "",
      "steps": ["Do something"],
      "expected_result": "Something happens",
      "grounded_in": []
    }
  ]
}` + "\n```"

func planEvidence() domain.EvidenceSet {
	return domain.EvidenceSet{
		SupportDocs: []domain.Evidence{
			supportEvidence("discounts.md", "The code SAVE15 grants a 15 percent discount."),
		},
		Markup: []domain.Evidence{
			markupEvidence("checkout.html", `<input id="discount-code" name="discount">`,
				[]string{"discount-code"}, []string{"discount"}, nil),
		},
	}
}

func newTestGenerator(retriever *mockRetriever, completer *mockCompleter, plans *mockPlanStore) *GenerationService {
	return NewGenerationService(retriever, completer, &mockPromptStore{}, plans, domain.RetrievalSettings{})
}

func TestGenerationService_GenerateTestCases(t *testing.T) {
	t.Run("keeps grounded cases and drops the rest", func(t *testing.T) {
		plans := newMockPlanStore()
		retriever := &mockRetriever{sets: []domain.EvidenceSet{planEvidence()}}
		completer := &mockCompleter{responses: []string{planResponse}}
		svc := newTestGenerator(retriever, completer, plans)

		plan, err := svc.GenerateTestCases(context.Background(), "test the discount feature")
		require.NoError(t, err)

		assert.Len(t, plan.Viewpoints, 3)
		require.Len(t, plan.TestCases, 2)
		assert.Equal(t, "TC-001", plan.TestCases[0].ID)
		assert.Equal(t, "TC-002", plan.TestCases[1].ID)

		require.Len(t, plan.Dropped, 2)
		assert.Equal(t, "TC-003", plan.Dropped[0].ID)
		assert.Contains(t, plan.Dropped[0].Reason, "loyalty.md")
		assert.Equal(t, "TC-004", plan.Dropped[1].ID)

		// Surviving cases are resolvable by id for script synthesis.
		tc, err := plans.GetCase(context.Background(), "TC-001")
		require.NoError(t, err)
		assert.Equal(t, "Valid discount code applies 15 percent", tc.Title)
	})

	t.Run("evidence context carries source prefixes", func(t *testing.T) {
		retriever := &mockRetriever{sets: []domain.EvidenceSet{planEvidence()}}
		completer := &mockCompleter{responses: []string{planResponse}}
		svc := newTestGenerator(retriever, completer, newMockPlanStore())

		_, err := svc.GenerateTestCases(context.Background(), "test the discount feature")
		require.NoError(t, err)

		require.Len(t, completer.prompts, 1)
		assert.Contains(t, completer.prompts[0], "[Source:discounts.md]")
		assert.Contains(t, completer.prompts[0], "[Source:checkout.html]")
		assert.Contains(t, completer.prompts[0], "test the discount feature")
	})

	t.Run("no valid output when every case fails grounding", func(t *testing.T) {
		response := `{"viewpoints": ["v1"], "test_cases": [
			{"id": "TC-001", "title": "t", "steps": ["s"], "expected_result": "r", "grounded_in": ["invented.md"]}
		]}`
		retriever := &mockRetriever{sets: []domain.EvidenceSet{planEvidence()}}
		completer := &mockCompleter{responses: []string{response}}
		svc := newTestGenerator(retriever, completer, newMockPlanStore())

		_, err := svc.GenerateTestCases(context.Background(), "test the discount feature")
		assert.ErrorIs(t, err, domain.ErrNoValidOutput)
	})

	t.Run("no valid output on malformed JSON", func(t *testing.T) {
		retriever := &mockRetriever{sets: []domain.EvidenceSet{planEvidence()}}
		completer := &mockCompleter{responses: []string{"here is your plan: ..."}}
		svc := newTestGenerator(retriever, completer, newMockPlanStore())

		_, err := svc.GenerateTestCases(context.Background(), "test the discount feature")
		assert.ErrorIs(t, err, domain.ErrNoValidOutput)
	})

	t.Run("wraps completion failure", func(t *testing.T) {
		retriever := &mockRetriever{sets: []domain.EvidenceSet{planEvidence()}}
		completer := &mockCompleter{err: errors.New("backend down")}
		svc := newTestGenerator(retriever, completer, newMockPlanStore())

		_, err := svc.GenerateTestCases(context.Background(), "test the discount feature")
		assert.ErrorIs(t, err, domain.ErrCompletionService)
	})

	t.Run("propagates retrieval failure", func(t *testing.T) {
		retriever := &mockRetriever{err: domain.ErrKnowledgeBaseIncomplete}
		svc := newTestGenerator(retriever, &mockCompleter{}, newMockPlanStore())

		_, err := svc.GenerateTestCases(context.Background(), "test the discount feature")
		assert.ErrorIs(t, err, domain.ErrKnowledgeBaseIncomplete)
	})

	t.Run("rejects empty request", func(t *testing.T) {
		svc := newTestGenerator(&mockRetriever{}, &mockCompleter{}, newMockPlanStore())

		_, err := svc.GenerateTestCases(context.Background(), "  ")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestStripJSONFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripJSONFences(tt.in))
		})
	}
}
