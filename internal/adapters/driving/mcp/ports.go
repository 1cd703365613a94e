package mcp

import (
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval serves evidence queries.
	Retrieval driving.RetrievalService

	// Generation produces grounded test plans.
	Generation driving.GenerationService

	// Script synthesises automation scripts.
	Script driving.ScriptService

	// Ingestion reports knowledge-base status. Optional: without it the
	// status resource reports no build.
	Ingestion driving.IngestionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	if p.Generation == nil {
		return ErrMissingGenerationService
	}
	if p.Script == nil {
		return ErrMissingScriptService
	}
	return nil
}
