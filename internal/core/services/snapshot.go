package services

import (
	"sync/atomic"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
	"github.com/custodia-labs/testbrain-cli/internal/core/ports/driven"
)

// Snapshot pairs one immutable knowledge-base build with the vector index
// built over its chunks. Everything reachable from a Snapshot is read-only;
// concurrent generation requests share it without mutual exclusion.
type Snapshot struct {
	// KB is the build: documents, chunks, metadata.
	KB *domain.KnowledgeBase

	// Index is the similarity index over KB's chunks.
	Index driven.VectorIndex

	// chunksByID resolves vector hits back to chunks.
	chunksByID map[string]*domain.Chunk
}

// NewSnapshot creates a snapshot over a build and its index.
func NewSnapshot(kb *domain.KnowledgeBase, index driven.VectorIndex) *Snapshot {
	byID := make(map[string]*domain.Chunk, len(kb.Chunks))
	for i := range kb.Chunks {
		byID[kb.Chunks[i].ID] = &kb.Chunks[i]
	}
	return &Snapshot{KB: kb, Index: index, chunksByID: byID}
}

// ChunkByID resolves a chunk id within this snapshot.
func (s *Snapshot) ChunkByID(id string) (*domain.Chunk, bool) {
	ch, ok := s.chunksByID[id]
	return ch, ok
}

// SnapshotHolder publishes the active snapshot. A rebuild constructs the
// next snapshot off to the side and swaps the pointer in one atomic store:
// a reader observes either the fully-old or the fully-new knowledge base,
// never a mix. Readers bind to a snapshot once at call start and keep it
// for the whole request, so an in-flight read is pinned even if a swap
// happens underneath it.
type SnapshotHolder struct {
	current atomic.Pointer[Snapshot]
}

// NewSnapshotHolder creates an empty holder.
func NewSnapshotHolder() *SnapshotHolder {
	return &SnapshotHolder{}
}

// Current returns the active snapshot, or nil if nothing has been built.
func (h *SnapshotHolder) Current() *Snapshot {
	return h.current.Load()
}

// Swap publishes a new snapshot and returns the previous one.
func (h *SnapshotHolder) Swap(next *Snapshot) *Snapshot {
	return h.current.Swap(next)
}
