package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService for testing.
// It produces a fixed-dimension vector derived from the text length so
// identical texts embed identically.
type mockEmbedder struct {
	mu       sync.Mutex
	dims     int
	err      error
	failFrom int // fail every call once this many calls have happened (0 = never)
	calls    int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.failFrom > 0 && m.calls >= m.failFrom {
		return nil, fmt.Errorf("embedding backend down")
	}
	vec := make([]float32, m.dims)
	for i := range vec {
		vec[i] = float32((len(text)+i)%7) + 1
	}
	return vec, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockCompleter implements driven.CompletionService for testing.
// Responses are consumed in order; the last one repeats.
type mockCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string, _ driven.CompleteOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", fmt.Errorf("no scripted response")
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func (m *mockCompleter) ModelName() string { return "mock-complete" }

func (m *mockCompleter) Ping(_ context.Context) error { return nil }

func (m *mockCompleter) Close() error { return nil }

func (m *mockCompleter) promptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockIndex implements driven.VectorIndex over a static chunk list.
// Search returns the chunks of the requested type in list order, ignoring
// the query vector.
type mockIndex struct {
	chunks []domain.Chunk
}

func (m *mockIndex) Search(_ context.Context, _ []float32, sourceType domain.SourceType, k int) ([]driven.VectorHit, error) {
	var hits []driven.VectorHit
	for _, ch := range m.chunks {
		if ch.SourceType != sourceType {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: ch.ID, Similarity: 1.0 - float64(len(hits))*0.1})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

func (m *mockIndex) Size(sourceType domain.SourceType) int {
	n := 0
	for _, ch := range m.chunks {
		if ch.SourceType == sourceType {
			n++
		}
	}
	return n
}

// mockIndexBuilder implements driven.VectorIndexBuilder.
type mockIndexBuilder struct {
	err error
}

func (m *mockIndexBuilder) Build(_ context.Context, chunks []domain.Chunk) (driven.VectorIndex, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &mockIndex{chunks: chunks}, nil
}

// mockKnowledgeStore implements driven.KnowledgeStore in memory.
type mockKnowledgeStore struct {
	mu      sync.Mutex
	saved   []*domain.KnowledgeBase
	saveErr error
}

func (m *mockKnowledgeStore) SaveBuild(_ context.Context, kb *domain.KnowledgeBase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, kb)
	return nil
}

func (m *mockKnowledgeStore) LoadActiveBuild(_ context.Context) (*domain.KnowledgeBase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil, domain.ErrNotFound
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *mockKnowledgeStore) Close() error { return nil }

// mockPlanStore implements driven.PlanStore in memory.
type mockPlanStore struct {
	mu      sync.Mutex
	cases   map[string]domain.TestCase
	plans   int
	cleared int
}

func newMockPlanStore() *mockPlanStore {
	return &mockPlanStore{cases: make(map[string]domain.TestCase)}
}

func (m *mockPlanStore) SavePlan(_ context.Context, plan *domain.TestPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans++
	for _, tc := range plan.TestCases {
		m.cases[tc.ID] = tc
	}
	return nil
}

func (m *mockPlanStore) GetCase(_ context.Context, id string) (*domain.TestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tc, ok := m.cases[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTestCaseNotFound, id)
	}
	return &tc, nil
}

func (m *mockPlanStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases = make(map[string]domain.TestCase)
	m.cleared++
	return nil
}

// mockRetriever implements driving.RetrievalService with scripted evidence
// sets, consumed per call (the last one repeats). It records the k values
// it was called with.
type mockRetriever struct {
	mu      sync.Mutex
	sets    []domain.EvidenceSet
	err     error
	kdCalls []int
	kmCalls []int
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, kDocs, kMarkup int) (domain.EvidenceSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kdCalls = append(m.kdCalls, kDocs)
	m.kmCalls = append(m.kmCalls, kMarkup)
	if m.err != nil {
		return domain.EvidenceSet{}, m.err
	}
	if len(m.sets) == 0 {
		return domain.EvidenceSet{Query: query}, nil
	}
	set := m.sets[0]
	if len(m.sets) > 1 {
		m.sets = m.sets[1:]
	}
	set.Query = query
	return set, nil
}

// mockPromptStore implements driven.PromptStore with minimal templates
// that keep the placeholder contract of the real prompts.
type mockPromptStore struct{}

func (m *mockPromptStore) Load(name string) (string, error) {
	switch name {
	case driven.PromptTestPlan:
		return "CONTEXT:\n%s\n\nREQUEST: %s", nil
	case driven.PromptScript:
		return "CASE:\n%s\n\nMARKUP:\n%s\n\nDOCS:\n%s", nil
	default:
		return "", fmt.Errorf("unknown prompt %q", name)
	}
}

func (m *mockPromptStore) Reload() {}

// --- Test fixtures ---

func supportEvidence(filename, text string) domain.Evidence {
	return domain.Evidence{
		Chunk: domain.Chunk{
			ID:             "chunk-" + filename,
			SourceFilename: filename,
			SourceType:     domain.SourceTypeSupportDoc,
			Text:           text,
		},
		Score: 0.9,
	}
}

func markupEvidence(filename, text string, ids, names, classes []string) domain.Evidence {
	meta := map[string]any{}
	if len(ids) > 0 {
		meta[domain.MetaSelectorIDs] = ids
	}
	if len(names) > 0 {
		meta[domain.MetaSelectorNames] = names
	}
	if len(classes) > 0 {
		meta[domain.MetaSelectorClasses] = classes
	}
	return domain.Evidence{
		Chunk: domain.Chunk{
			ID:             "chunk-" + filename,
			SourceFilename: filename,
			SourceType:     domain.SourceTypeMarkup,
			Text:           text,
			Metadata:       meta,
		},
		Score: 0.8,
	}
}
