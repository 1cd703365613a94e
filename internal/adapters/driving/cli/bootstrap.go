package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/testbrain-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/testbrain-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/testbrain-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/testbrain-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/testbrain-cli/internal/adapters/driven/vector/cosine"
	"github.com/custodia-labs/testbrain-cli/internal/chunker"
	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/services"
	"github.com/custodia-labs/testbrain-cli/internal/logger"
	"github.com/custodia-labs/testbrain-cli/internal/normalisers"
	"github.com/custodia-labs/testbrain-cli/internal/normalisers/jsondoc"
	"github.com/custodia-labs/testbrain-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/testbrain-cli/internal/normalisers/markup"
	"github.com/custodia-labs/testbrain-cli/internal/normalisers/plaintext"
)

// Config keys read from ~/.testbrain/config.toml.
const (
	keyEmbeddingProvider   = "embedding.provider"
	keyEmbeddingModel      = "embedding.model"
	keyEmbeddingBaseURL    = "embedding.base_url"
	keyEmbeddingAPIKey     = "embedding.api_key"
	keyEmbeddingDimensions = "embedding.dimensions"
	keyCompletionProvider  = "completion.provider"
	keyCompletionModel     = "completion.model"
	keyCompletionBaseURL   = "completion.base_url"
	keyCompletionAPIKey    = "completion.api_key"
	keyRetrievalKDocs      = "retrieval.k_docs"
	keyRetrievalKMarkup    = "retrieval.k_markup"
)

// wireServices builds the production object graph: config, prompt and
// knowledge stores, AI backends, and the core services. Called once per
// process, before the first command that needs services.
func wireServices() error {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}
	configStore = cfg

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening knowledge store: %w", err)
	}

	embedSettings, completeSettings, retrievalSettings := loadSettings(cfg)

	embedder, err := ai.CreateEmbeddingService(embedSettings)
	if err != nil {
		return err
	}
	completer, err := ai.CreateCompletionService(completeSettings)
	if err != nil {
		return err
	}

	holder := services.NewSnapshotHolder()
	planStore := memory.NewPlanStore()

	registry := normalisers.NewRegistry(plaintext.New(), markdown.New(), jsondoc.New(), markup.New())

	ingestion := services.NewIngestionService(
		registry,
		chunker.NewDefaultRegistry(),
		embedder,
		cosine.NewBuilder(),
		store,
		planStore,
		holder,
	)
	retrieval := services.NewRetrievalService(embedder, holder)

	ingestionService = ingestion
	retrievalService = retrieval
	generationService = services.NewGenerationService(retrieval, completer, prompts, planStore, retrievalSettings)
	scriptService = services.NewScriptService(retrieval, completer, prompts, planStore, retrievalSettings)

	// Reload the persisted build so generate/script/status work in a fresh
	// process without re-ingesting.
	if err := ingestion.Restore(context.Background()); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("restoring knowledge base: %w", err)
		}
		logger.Debug("No persisted knowledge base found")
	}

	return nil
}

// loadSettings reads backend settings from the config store. API keys fall
// back to environment variables so they can stay out of the config file.
func loadSettings(cfg *file.ConfigStore) (domain.EmbeddingSettings, domain.CompletionSettings, domain.RetrievalSettings) {
	embed := domain.EmbeddingSettings{
		Provider:   domain.AIProvider(cfg.GetString(keyEmbeddingProvider)),
		Model:      cfg.GetString(keyEmbeddingModel),
		BaseURL:    cfg.GetString(keyEmbeddingBaseURL),
		APIKey:     cfg.GetString(keyEmbeddingAPIKey),
		Dimensions: cfg.GetInt(keyEmbeddingDimensions),
	}
	complete := domain.CompletionSettings{
		Provider: domain.AIProvider(cfg.GetString(keyCompletionProvider)),
		Model:    cfg.GetString(keyCompletionModel),
		BaseURL:  cfg.GetString(keyCompletionBaseURL),
		APIKey:   cfg.GetString(keyCompletionAPIKey),
	}
	retrieval := domain.RetrievalSettings{
		KDocs:   cfg.GetInt(keyRetrievalKDocs),
		KMarkup: cfg.GetInt(keyRetrievalKMarkup),
	}.Normalise()

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if embed.APIKey == "" {
			embed.APIKey = key
		}
		if complete.APIKey == "" {
			complete.APIKey = key
		}
	}

	return embed, complete, retrieval
}
