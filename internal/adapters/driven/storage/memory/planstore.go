// Package memory provides in-memory implementations of driven ports for
// session-scoped state and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// Ensure PlanStore implements the interface.
var _ driven.PlanStore = (*PlanStore)(nil)

// PlanStore holds generated test plans in memory for the current session.
// Script synthesis resolves test case ids against it; a knowledge-base
// rebuild clears it, because stored cases cite evidence from the old build.
type PlanStore struct {
	mu    sync.RWMutex
	plans []*domain.TestPlan
	cases map[string]domain.TestCase
}

// NewPlanStore creates an empty plan store.
func NewPlanStore() *PlanStore {
	return &PlanStore{
		cases: make(map[string]domain.TestCase),
	}
}

// SavePlan stores a plan and indexes its test cases by id.
// A case id that collides with one from an earlier plan is overwritten;
// ids are only unique within a plan.
func (s *PlanStore) SavePlan(_ context.Context, plan *domain.TestPlan) error {
	if plan == nil {
		return fmt.Errorf("%w: nil plan", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans = append(s.plans, plan)
	for _, tc := range plan.TestCases {
		s.cases[tc.ID] = tc
	}
	return nil
}

// GetCase resolves a test case by id.
func (s *PlanStore) GetCase(_ context.Context, id string) (*domain.TestCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tc, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q (generate a plan first)", domain.ErrTestCaseNotFound, id)
	}
	return &tc, nil
}

// Plans returns the stored plans in insertion order.
func (s *PlanStore) Plans() []*domain.TestPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.TestPlan, len(s.plans))
	copy(out, s.plans)
	return out
}

// Clear removes all stored plans.
func (s *PlanStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans = nil
	s.cases = make(map[string]domain.TestCase)
	return nil
}
