package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driving"
	"github.com/custodia-labs/testbrain-cli/internal/logger"
)

// Ensure GenerationService implements the interface.
var _ driving.GenerationService = (*GenerationService)(nil)

// completionMaxTokens bounds plan and script generations. Large enough for
// a full plan, small enough to cut off a runaway completion.
const completionMaxTokens = 4096

// GenerationService produces grounded test plans: retrieve evidence, prompt
// the completion backend, then validate every returned case against the
// evidence actually supplied. The model's output is untrusted until it
// passes grounding validation; cases that fail are dropped with a recorded
// reason rather than surfaced.
type GenerationService struct {
	retriever driving.RetrievalService
	completer driven.CompletionService
	prompts   driven.PromptStore
	planStore driven.PlanStore
	settings  domain.RetrievalSettings
}

// NewGenerationService creates a generation service. planStore is optional:
// without one, plans are returned but not resolvable by id later.
func NewGenerationService(
	retriever driving.RetrievalService,
	completer driven.CompletionService,
	prompts driven.PromptStore,
	planStore driven.PlanStore,
	settings domain.RetrievalSettings,
) *GenerationService {
	return &GenerationService{
		retriever: retriever,
		completer: completer,
		prompts:   prompts,
		planStore: planStore,
		settings:  settings.Normalise(),
	}
}

// planEnvelope is the JSON contract the test-plan prompt demands.
type planEnvelope struct {
	Viewpoints []string          `json:"viewpoints"`
	TestCases  []domain.TestCase `json:"test_cases"`
}

// GenerateTestCases generates a grounded test plan for the request.
func (s *GenerationService) GenerateTestCases(ctx context.Context, request string) (*domain.TestPlan, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return nil, fmt.Errorf("%w: empty request", domain.ErrInvalidInput)
	}
	if s.completer == nil {
		return nil, domain.ErrCompletionUnavailable
	}

	logger.Section("Test Plan Generation")

	evidence, err := s.retriever.Retrieve(ctx, request, s.settings.KDocs, s.settings.KMarkup)
	if err != nil {
		return nil, err
	}
	if len(evidence.All()) == 0 {
		return nil, fmt.Errorf("%w: retrieval returned no evidence for %q", domain.ErrNoValidOutput, request)
	}

	template, err := s.prompts.Load(driven.PromptTestPlan)
	if err != nil {
		return nil, fmt.Errorf("load test plan prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, formatEvidence(evidence.All()), request)

	raw, err := withRetry(ctx, defaultRetryAttempts, defaultRetryBackoff, func() (string, error) {
		return s.completer.Complete(ctx, prompt, driven.CompleteOptions{
			MaxTokens:   completionMaxTokens,
			Temperature: 0,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCompletionService, err)
	}

	var envelope planEnvelope
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &envelope); err != nil {
		return nil, fmt.Errorf("%w: completion is not valid plan JSON: %v", domain.ErrNoValidOutput, err)
	}

	plan := &domain.TestPlan{Request: request}
	for _, vp := range envelope.Viewpoints {
		if vp = strings.TrimSpace(vp); vp != "" {
			plan.Viewpoints = append(plan.Viewpoints, domain.TestViewpoint(vp))
		}
	}

	for _, tc := range envelope.TestCases {
		if reason := validateCase(tc, evidence); reason != "" {
			logger.Warn("Dropping case %q: %s", tc.ID, reason)
			plan.Dropped = append(plan.Dropped, domain.DroppedCase{ID: tc.ID, Reason: reason})
			continue
		}
		plan.TestCases = append(plan.TestCases, tc)
	}

	if len(plan.TestCases) == 0 {
		return nil, fmt.Errorf("%w: all %d generated cases failed validation", domain.ErrNoValidOutput, len(envelope.TestCases))
	}

	logger.Info("Plan: %d viewpoints, %d cases kept, %d dropped", len(plan.Viewpoints), len(plan.TestCases), len(plan.Dropped))

	if s.planStore != nil {
		if err := s.planStore.SavePlan(ctx, plan); err != nil {
			return nil, fmt.Errorf("save plan: %w", err)
		}
	}
	return plan, nil
}

// validateCase checks one generated case structurally and against the
// evidence set. Returns an empty string when the case is valid, otherwise
// the drop reason.
func validateCase(tc domain.TestCase, evidence domain.EvidenceSet) string {
	if err := tc.Validate(); err != nil {
		return err.Error()
	}
	for _, src := range tc.GroundedIn {
		if !evidence.HasSource(src) {
			return fmt.Sprintf("grounded_in cites %q, which is not in the retrieved evidence", src)
		}
	}
	return ""
}

// formatEvidence renders evidence as prompt context. Each chunk is prefixed
// with its provenance so the model can cite sources and grounding can be
// checked on the way back.
func formatEvidence(evidence []domain.Evidence) string {
	if len(evidence) == 0 {
		return "(no evidence retrieved)"
	}
	var b strings.Builder
	for i, ev := range evidence {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Source:%s]\n%s", ev.Chunk.SourceFilename, ev.Chunk.Text)
	}
	return b.String()
}

// stripJSONFences removes a surrounding markdown code fence from a model
// response. Models fence JSON output despite being told not to.
func stripJSONFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
