// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants drive the testing brain directly: retrieve evidence,
// generate grounded test plans and synthesise validated automation scripts.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// Required-port errors.
var (
	ErrMissingRetrievalService  = errors.New("mcp: retrieval service is required")
	ErrMissingGenerationService = errors.New("mcp: generation service is required")
	ErrMissingScriptService     = errors.New("mcp: script service is required")
)

// toolError wraps a domain error with its machine-readable failure code, so
// an MCP client can branch on the code without parsing prose.
func toolError(err error) error {
	return fmt.Errorf("[%s] %w", domain.Code(err), err)
}
