// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/testbrain-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/testbrain-cli/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/testbrain-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/testbrain-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// knownEmbeddingDimensions maps model names to their vector sizes, for
// models where the size is fixed and documented.
var knownEmbeddingDimensions = map[string]int{
	"nomic-embed-text":       768,
	"all-minilm":             384,
	"mxbai-embed-large":      1024,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// CreateAndValidateEmbeddingService creates an embedding service and pings
// it before handing it out. Ingestion commits to the embedding backend for
// a whole build, so an unreachable service must surface before any work.
func CreateAndValidateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'testbrain config' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'testbrain config' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateCompletionService creates a completion service and pings it.
func CreateAndValidateCompletionService(settings domain.CompletionSettings) (driven.CompletionService, error) {
	svc, err := CreateCompletionService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'testbrain config' to fix",
			domain.ErrCompletionUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'testbrain config' to fix",
			domain.ErrCompletionUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on
// settings. An empty provider defaults to Ollama.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	provider := settings.Provider
	if provider == "" {
		provider = domain.AIProviderOllama
	}

	switch provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: embeddingDimensions(settings),
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: embeddingDimensions(settings),
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// CreateCompletionService creates the appropriate completion service based
// on settings. An empty provider defaults to Ollama.
func CreateCompletionService(settings domain.CompletionSettings) (driven.CompletionService, error) {
	provider := settings.Provider
	if provider == "" {
		provider = domain.AIProviderOllama
	}

	switch provider {
	case domain.AIProviderOllama:
		return ollamallm.NewCompletionService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewCompletionService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", provider)
	}
}

// embeddingDimensions resolves the vector size: explicit setting first,
// then the known-model table, else 0 to let the adapter default apply.
func embeddingDimensions(settings domain.EmbeddingSettings) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	return knownEmbeddingDimensions[settings.Model]
}
