package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driving"
	"github.com/custodia-labs/testbrain-cli/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// DefaultEmbedConcurrency caps simultaneous outstanding embedding requests
// so a large batch does not overwhelm the external service.
const DefaultEmbedConcurrency = 4

// IngestionService builds knowledge bases. A rebuild is one logical
// transaction: the next build is constructed entirely off to the side
// (normalise, chunk, embed, persist) while the current snapshot keeps
// serving reads, and only the final pointer swap is observable.
type IngestionService struct {
	registry     driven.NormaliserRegistry
	chunkers     driven.ChunkerRegistry
	embedder     driven.EmbeddingService
	indexBuilder driven.VectorIndexBuilder
	store        driven.KnowledgeStore
	planStore    driven.PlanStore
	holder       *SnapshotHolder

	embedConcurrency int
	limiter          *rate.Limiter

	// rebuildMu serialises rebuilds; reads are never blocked by it.
	rebuildMu sync.Mutex
}

// IngestOption configures the ingestion service.
type IngestOption func(*IngestionService)

// WithEmbedConcurrency caps simultaneous embedding requests.
func WithEmbedConcurrency(n int) IngestOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.embedConcurrency = n
		}
	}
}

// WithEmbedRateLimit caps embedding requests per second.
func WithEmbedRateLimit(perSecond float64) IngestOption {
	return func(s *IngestionService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewIngestionService creates an ingestion service.
// The store and planStore are optional (can be nil): without a store the
// knowledge base lives only in memory, and without a planStore there is no
// session plan state to clear on rebuild.
func NewIngestionService(
	registry driven.NormaliserRegistry,
	chunkers driven.ChunkerRegistry,
	embedder driven.EmbeddingService,
	indexBuilder driven.VectorIndexBuilder,
	store driven.KnowledgeStore,
	planStore driven.PlanStore,
	holder *SnapshotHolder,
	opts ...IngestOption,
) *IngestionService {
	s := &IngestionService{
		registry:         registry,
		chunkers:         chunkers,
		embedder:         embedder,
		indexBuilder:     indexBuilder,
		store:            store,
		planStore:        planStore,
		holder:           holder,
		embedConcurrency: DefaultEmbedConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rebuild ingests the batch and swaps the active knowledge base.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *IngestionService) Rebuild(ctx context.Context, batch []domain.IngestionEntry) (*driving.BuildReport, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	logger.Section("Knowledge Base Rebuild")
	logger.Info("Batch size: %d entries", len(batch))

	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: empty batch", domain.ErrIngestionIncomplete)
	}

	// 1. Validate batch composition before any work: one support_doc and
	// one markup entry are required, and the prior knowledge base must
	// stay active when the batch is rejected.
	if err := s.validateBatch(batch); err != nil {
		return nil, err
	}

	// 2. Normalise and chunk every entry.
	kb := &domain.KnowledgeBase{
		BuildID:   uuid.New().String(),
		Documents: make(map[string]domain.Document, len(batch)),
	}

	for _, entry := range batch {
		doc, err := s.normaliseEntry(ctx, entry)
		if err != nil {
			return nil, err
		}

		chunks, err := s.chunkers.Select(doc.Type).Chunk(ctx, doc)
		if err != nil || len(chunks) == 0 {
			warning := fmt.Sprintf("document %q produced no chunks", doc.Filename)
			if err != nil {
				warning = fmt.Sprintf("document %q could not be chunked: %v", doc.Filename, err)
			}
			logger.Warn("%s", warning)
			kb.Warnings = append(kb.Warnings, warning)
		}

		kb.Documents[doc.Filename] = *doc
		kb.Chunks = append(kb.Chunks, chunks...)
	}

	// Keep chunk ordering deterministic across rebuilds of the same input.
	sort.SliceStable(kb.Chunks, func(i, j int) bool {
		if kb.Chunks[i].SourceFilename != kb.Chunks[j].SourceFilename {
			return kb.Chunks[i].SourceFilename < kb.Chunks[j].SourceFilename
		}
		return kb.Chunks[i].SequenceIndex < kb.Chunks[j].SequenceIndex
	})

	// 3. The chunk-level invariant can still fail even when the batch
	// composition was valid (e.g. the only markup file was empty).
	if !kbHasBothTypes(kb) {
		return nil, fmt.Errorf("%w: batch produced %d support_doc and %d markup chunks; both types are required",
			domain.ErrIngestionIncomplete,
			kb.CountByType(domain.SourceTypeSupportDoc),
			kb.CountByType(domain.SourceTypeMarkup))
	}

	// 4. Embed every chunk. Any failure aborts the whole build.
	if err := s.embedChunks(ctx, kb.Chunks); err != nil {
		return nil, err
	}
	kb.Dimensions = s.embedder.Dimensions()
	if len(kb.Chunks) > 0 {
		kb.Dimensions = len(kb.Chunks[0].Embedding)
	}

	// 5. Build the index over the embedded chunks.
	index, err := s.indexBuilder.Build(ctx, kb.Chunks)
	if err != nil {
		return nil, fmt.Errorf("build vector index: %w", err)
	}

	kb.BuiltAt = time.Now().UTC()

	// 6. Persist before publishing, so a crash between the two leaves
	// either the old or the new build on disk, never a torn one.
	if s.store != nil {
		if err := s.store.SaveBuild(ctx, kb); err != nil {
			return nil, fmt.Errorf("persist build: %w", err)
		}
	}

	// 7. Publish. Readers pinned to the old snapshot finish against it.
	s.holder.Swap(NewSnapshot(kb, index))
	logger.Info("Build %s active: %d documents, %d chunks", kb.BuildID, len(kb.Documents), len(kb.Chunks))

	// 8. Test plans reference the old build's evidence; drop them.
	if s.planStore != nil {
		if err := s.planStore.Clear(ctx); err != nil {
			logger.Warn("clearing session plans: %v", err)
		}
	}

	return &driving.BuildReport{
		BuildID:          kb.BuildID,
		Documents:        len(kb.Documents),
		SupportDocChunks: kb.CountByType(domain.SourceTypeSupportDoc),
		MarkupChunks:     kb.CountByType(domain.SourceTypeMarkup),
		Warnings:         kb.Warnings,
	}, nil
}

// Status describes the active knowledge base.
func (s *IngestionService) Status(_ context.Context) (*driving.BuildStatus, error) {
	snap := s.holder.Current()
	if snap == nil {
		return nil, fmt.Errorf("%w: no knowledge base built", domain.ErrNotFound)
	}

	kb := snap.KB
	return &driving.BuildStatus{
		BuildID:          kb.BuildID,
		BuiltAt:          kb.BuiltAt,
		Documents:        len(kb.Documents),
		SupportDocChunks: kb.CountByType(domain.SourceTypeSupportDoc),
		MarkupChunks:     kb.CountByType(domain.SourceTypeMarkup),
		Usable:           kb.Usable(),
	}, nil
}

// Restore loads the persisted active build and publishes it. Called once
// at startup; domain.ErrNotFound means nothing was persisted yet.
func (s *IngestionService) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	kb, err := s.store.LoadActiveBuild(ctx)
	if err != nil {
		return err
	}

	index, err := s.indexBuilder.Build(ctx, kb.Chunks)
	if err != nil {
		return fmt.Errorf("rebuild vector index from store: %w", err)
	}

	s.holder.Swap(NewSnapshot(kb, index))
	logger.Info("Restored build %s: %d documents, %d chunks", kb.BuildID, len(kb.Documents), len(kb.Chunks))
	return nil
}

// validateBatch enforces the ingestion boundary contract: at least one
// entry of each source type, unique filenames, no partial acceptance.
func (s *IngestionService) validateBatch(batch []domain.IngestionEntry) error {
	counts := make(map[domain.SourceType]int)
	seen := make(map[string]bool, len(batch))

	for _, entry := range batch {
		// Documents are keyed by filename; a duplicate would silently
		// shadow the earlier entry while both entries' chunks survive.
		if seen[entry.Filename] {
			return fmt.Errorf("%w: duplicate filename %q in batch", domain.ErrInvalidInput, entry.Filename)
		}
		seen[entry.Filename] = true

		t := entry.DeclaredType
		if t == "" {
			normaliser, err := s.registry.Select(entry.Filename)
			if err != nil {
				return err
			}
			t = normaliser.SourceType()
		}
		if !t.Valid() {
			return fmt.Errorf("%w: entry %q declares unknown type %q", domain.ErrInvalidInput, entry.Filename, t)
		}
		counts[t]++
	}

	if counts[domain.SourceTypeMarkup] == 0 {
		return fmt.Errorf("%w: batch has no markup document; an HTML page under test is required", domain.ErrIngestionIncomplete)
	}
	if counts[domain.SourceTypeSupportDoc] == 0 {
		return fmt.Errorf("%w: batch has no support document; at least one MD/TXT/JSON/PDF file is required", domain.ErrIngestionIncomplete)
	}
	return nil
}

// normaliseEntry runs the registry-selected normaliser and applies the
// declared type override.
func (s *IngestionService) normaliseEntry(ctx context.Context, entry domain.IngestionEntry) (*domain.Document, error) {
	normaliser, err := s.registry.Select(entry.Filename)
	if err != nil {
		return nil, err
	}

	doc, err := normaliser.Normalise(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("normalise %q: %w", entry.Filename, err)
	}

	if entry.DeclaredType != "" {
		doc.Type = entry.DeclaredType
	}
	return doc, nil
}

// embedChunks embeds every chunk with bounded concurrency. The first error
// aborts the batch; a partially embedded build is never published.
func (s *IngestionService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	logger.Debug("Embedding %d chunks (concurrency %d)", len(chunks), s.embedConcurrency)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, s.embedConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	for i := range chunks {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				fail(err)
				break
			}
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			fail(ctx.Err())
		}
		if failed() {
			break
		}

		wg.Add(1)
		go func(ch *domain.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			embedding, err := withRetry(ctx, defaultRetryAttempts, defaultRetryBackoff, func() ([]float32, error) {
				return s.embedder.Embed(ctx, ch.Text)
			})
			if err != nil {
				fail(err)
				return
			}
			if len(embedding) == 0 {
				fail(fmt.Errorf("empty embedding for chunk %s", ch.ID))
				return
			}
			ch.Embedding = embedding
		}(&chunks[i])
	}

	wg.Wait()

	if firstErr != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingService, firstErr)
	}
	return nil
}

// kbHasBothTypes reports whether the build has chunks of both source types.
func kbHasBothTypes(kb *domain.KnowledgeBase) bool {
	return kb.CountByType(domain.SourceTypeSupportDoc) > 0 && kb.CountByType(domain.SourceTypeMarkup) > 0
}
