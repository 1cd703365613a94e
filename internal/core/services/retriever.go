package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driving"
	"github.com/custodia-labs/testbrain-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService runs two-lane similarity retrieval over the active
// knowledge base. The support_doc and markup lanes are searched
// independently with their own k, so a markup-heavy corpus can never crowd
// prose evidence out of the result set (or vice versa).
type RetrievalService struct {
	embedder driven.EmbeddingService
	holder   *SnapshotHolder
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(embedder driven.EmbeddingService, holder *SnapshotHolder) *RetrievalService {
	return &RetrievalService{embedder: embedder, holder: holder}
}

// Retrieve embeds the query once and searches both lanes against a single
// pinned snapshot.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, kDocs, kMarkup int) (domain.EvidenceSet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.EvidenceSet{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return domain.EvidenceSet{}, domain.ErrEmbeddingUnavailable
	}

	snap := s.holder.Current()
	if snap == nil || !snap.KB.Usable() {
		return domain.EvidenceSet{}, fmt.Errorf("%w: build and activate a knowledge base first", domain.ErrKnowledgeBaseIncomplete)
	}

	settings := domain.RetrievalSettings{KDocs: kDocs, KMarkup: kMarkup}.Normalise()

	embedding, err := withRetry(ctx, defaultRetryAttempts, defaultRetryBackoff, func() ([]float32, error) {
		return s.embedder.Embed(ctx, query)
	})
	if err != nil {
		return domain.EvidenceSet{}, fmt.Errorf("%w: embedding query: %v", domain.ErrEmbeddingService, err)
	}

	supportDocs, err := s.searchLane(ctx, snap, embedding, domain.SourceTypeSupportDoc, settings.KDocs)
	if err != nil {
		return domain.EvidenceSet{}, err
	}
	markup, err := s.searchLane(ctx, snap, embedding, domain.SourceTypeMarkup, settings.KMarkup)
	if err != nil {
		return domain.EvidenceSet{}, err
	}

	logger.Debug("Retrieved %d support_doc and %d markup chunks for query %q", len(supportDocs), len(markup), query)

	return domain.EvidenceSet{
		Query:       query,
		SupportDocs: supportDocs,
		Markup:      markup,
	}, nil
}

// searchLane runs one typed top-k search and resolves the hits to evidence.
// An empty lane is a valid result.
func (s *RetrievalService) searchLane(ctx context.Context, snap *Snapshot, query []float32, sourceType domain.SourceType, k int) ([]domain.Evidence, error) {
	hits, err := snap.Index.Search(ctx, query, sourceType, k)
	if err != nil {
		return nil, fmt.Errorf("search %s lane: %w", sourceType, err)
	}

	evidence := make([]domain.Evidence, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := snap.ChunkByID(hit.ChunkID)
		if !ok {
			// Index and snapshot are built from the same chunk slice;
			// a miss means a corrupted build.
			return nil, fmt.Errorf("chunk %s in index but not in snapshot", hit.ChunkID)
		}
		evidence = append(evidence, domain.Evidence{Chunk: *chunk, Score: hit.Similarity})
	}
	return evidence, nil
}
