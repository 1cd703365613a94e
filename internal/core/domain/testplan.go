package domain

import (
	"fmt"
	"strings"
)

// TestViewpoint is a named coverage perspective, e.g. "boundary values for
// discount codes". Viewpoints have no further structure; they organise the
// test cases generated alongside them.
type TestViewpoint string

// TestCase is one generated, grounded QA test case.
type TestCase struct {
	// ID is the generated identifier, e.g. "TC-001".
	ID string `json:"id"`

	// Title is a short description of what the case verifies.
	Title string `json:"title"`

	// Preconditions describes required state before the steps run.
	Preconditions string `json:"preconditions"`

	// Steps is the ordered sequence of actions.
	Steps []string `json:"steps"`

	// ExpectedResult is the observable outcome that makes the case pass.
	ExpectedResult string `json:"expected_result"`

	// GroundedIn lists the source filenames that justified this case.
	// Every entry must name a file whose chunks were in the evidence set
	// passed to the generation prompt; a case that cannot satisfy this is
	// dropped, never surfaced.
	GroundedIn []string `json:"grounded_in"`
}

// Validate checks structural well-formedness without consulting evidence.
// Grounding against the evidence set is the generator's job.
func (tc TestCase) Validate() error {
	if strings.TrimSpace(tc.ID) == "" {
		return fmt.Errorf("%w: test case missing id", ErrInvalidInput)
	}
	if strings.TrimSpace(tc.Title) == "" {
		return fmt.Errorf("%w: test case %s missing title", ErrInvalidInput, tc.ID)
	}
	if len(tc.Steps) == 0 {
		return fmt.Errorf("%w: test case %s has no steps", ErrInvalidInput, tc.ID)
	}
	if strings.TrimSpace(tc.ExpectedResult) == "" {
		return fmt.Errorf("%w: test case %s missing expected result", ErrInvalidInput, tc.ID)
	}
	if len(tc.GroundedIn) == 0 {
		return fmt.Errorf("%w: test case %s cites no sources", ErrGroundingViolation, tc.ID)
	}
	return nil
}

// QueryText renders the case as retrieval query text for script synthesis.
// The title and steps carry the actionable vocabulary (field names, buttons,
// codes), which is what selector retrieval needs.
func (tc TestCase) QueryText() string {
	parts := make([]string, 0, len(tc.Steps)+1)
	parts = append(parts, tc.Title)
	parts = append(parts, tc.Steps...)
	return strings.Join(parts, "\n")
}

// DroppedCase records a generated case that failed validation, with the
// reason it was rejected. Dropping is the normal outcome of a noisy
// generation process, so the rejects travel with the plan for reporting.
type DroppedCase struct {
	// ID is the rejected case's id, if it had one.
	ID string `json:"id"`

	// Reason is the human-readable rejection reason.
	Reason string `json:"reason"`
}

// TestPlan is the output of one generation request.
type TestPlan struct {
	// Request is the free-text request the plan was generated for.
	Request string `json:"request"`

	// Viewpoints are the coverage perspectives enumerated by the model.
	Viewpoints []TestViewpoint `json:"viewpoints"`

	// TestCases are the cases that survived validation.
	TestCases []TestCase `json:"test_cases"`

	// Dropped records cases rejected during validation.
	Dropped []DroppedCase `json:"dropped,omitempty"`
}

// FindCase returns the test case with the given id.
func (p TestPlan) FindCase(id string) (TestCase, bool) {
	for _, tc := range p.TestCases {
		if tc.ID == id {
			return tc, true
		}
	}
	return TestCase{}, false
}
