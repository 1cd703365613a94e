package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIngestionIncomplete indicates an ingestion batch lacks a required
	// source type. The batch is rejected whole; the prior knowledge base,
	// if any, stays active. User-correctable.
	ErrIngestionIncomplete = errors.New("ingestion batch incomplete")

	// ErrKnowledgeBaseIncomplete indicates the active knowledge base is
	// missing a required source type and cannot serve generation.
	ErrKnowledgeBaseIncomplete = errors.New("knowledge base incomplete")

	// ErrEmbeddingService indicates the embedding backend failed after
	// retries. Indexing fails for the whole batch, never partially.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrCompletionService indicates the completion backend failed after
	// retries.
	ErrCompletionService = errors.New("completion service error")

	// ErrGroundingViolation indicates a generated item cites no evidence or
	// evidence that was not in the prompt. The item is dropped, not fatal.
	ErrGroundingViolation = errors.New("grounding violation")

	// ErrNoValidOutput indicates every generated item failed validation,
	// leaving nothing to surface.
	ErrNoValidOutput = errors.New("no valid output")

	// ErrNoMarkupEvidence indicates script synthesis found no markup chunks
	// to bind selectors against.
	ErrNoMarkupEvidence = errors.New("no markup evidence")

	// ErrSelectorValidation indicates a generated script references
	// selectors absent from the retrieved markup, even after the retry with
	// expanded markup retrieval. Terminal for the script request.
	ErrSelectorValidation = errors.New("selector validation failed")

	// ErrTestCaseNotFound indicates a script was requested for an unknown
	// test case id.
	ErrTestCaseNotFound = errors.New("no such test case")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrCompletionUnavailable indicates the completion service is not
	// configured.
	ErrCompletionUnavailable = errors.New("completion service unavailable")
)
