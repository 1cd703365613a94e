package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(validPorts())
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("instructions describe every tool", func(t *testing.T) {
		// The initialization instructions are the assistant's only
		// orientation before its first tool call.
		assert.Contains(t, serverInstructions, "search_evidence")
		assert.Contains(t, serverInstructions, "generate_test_cases")
		assert.Contains(t, serverInstructions, "generate_script")
	})

	t.Run("missing retrieval service returns error", func(t *testing.T) {
		ports := validPorts()
		ports.Retrieval = nil
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRetrievalService)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("all required services set", func(t *testing.T) {
		assert.NoError(t, validPorts().Validate())
	})

	t.Run("missing generation service", func(t *testing.T) {
		ports := validPorts()
		ports.Generation = nil
		assert.ErrorIs(t, ports.Validate(), ErrMissingGenerationService)
	})

	t.Run("missing script service", func(t *testing.T) {
		ports := validPorts()
		ports.Script = nil
		assert.ErrorIs(t, ports.Validate(), ErrMissingScriptService)
	})

	t.Run("ingestion service is optional", func(t *testing.T) {
		ports := validPorts()
		ports.Ingestion = nil
		assert.NoError(t, ports.Validate())
	})
}

func TestToolError(t *testing.T) {
	err := toolError(domain.ErrKnowledgeBaseIncomplete)
	assert.ErrorIs(t, err, domain.ErrKnowledgeBaseIncomplete)
	assert.Contains(t, err.Error(), string(domain.CodeKnowledgeBaseIncomplete))
}
