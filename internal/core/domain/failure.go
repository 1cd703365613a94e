package domain

import "errors"

// FailureCode is the wire-level reason code attached to every user-visible
// failure. Driving adapters render a code plus the wrapped error's message so
// callers learn which invariant was violated, never a silently relabelled
// fallback artifact.
type FailureCode string

const (
	CodeIngestionIncomplete     FailureCode = "ingestion_incomplete"
	CodeKnowledgeBaseIncomplete FailureCode = "knowledge_base_incomplete"
	CodeEmbeddingServiceError   FailureCode = "embedding_service_error"
	CodeCompletionServiceError  FailureCode = "completion_service_error"
	CodeGroundingViolation      FailureCode = "grounding_violation"
	CodeNoValidOutput           FailureCode = "no_valid_output"
	CodeNoMarkupEvidence        FailureCode = "no_markup_evidence"
	CodeSelectorValidation      FailureCode = "selector_validation_failed"
	CodeNoSuchTestCase          FailureCode = "no_such_test_case"
	CodeNotFound                FailureCode = "not_found"
	CodeInvalidInput            FailureCode = "invalid_input"
	CodeInternal                FailureCode = "internal"
)

// codeTable maps sentinel errors to failure codes. Order matters: more
// specific sentinels first, since wrapped chains can contain several.
var codeTable = []struct {
	err  error
	code FailureCode
}{
	{ErrIngestionIncomplete, CodeIngestionIncomplete},
	{ErrKnowledgeBaseIncomplete, CodeKnowledgeBaseIncomplete},
	{ErrSelectorValidation, CodeSelectorValidation},
	{ErrNoMarkupEvidence, CodeNoMarkupEvidence},
	{ErrTestCaseNotFound, CodeNoSuchTestCase},
	{ErrNoValidOutput, CodeNoValidOutput},
	{ErrGroundingViolation, CodeGroundingViolation},
	{ErrEmbeddingService, CodeEmbeddingServiceError},
	{ErrEmbeddingUnavailable, CodeEmbeddingServiceError},
	{ErrCompletionService, CodeCompletionServiceError},
	{ErrCompletionUnavailable, CodeCompletionServiceError},
	{ErrNotFound, CodeNotFound},
	{ErrInvalidInput, CodeInvalidInput},
}

// Code maps an error chain to its failure code. Unrecognised errors map to
// CodeInternal.
func Code(err error) FailureCode {
	for _, entry := range codeTable {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return CodeInternal
}
