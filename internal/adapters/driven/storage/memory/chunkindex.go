package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/prism/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
)

// Ensure ChunkIndex implements the interface.
var _ driven.ChunkIndex = (*ChunkIndex)(nil)

// ChunkIndex is an in-memory implementation of driven.ChunkIndex.
// Search is a brute-force cosine scan, suitable for tests and small corpora.
type ChunkIndex struct {
	mu       sync.RWMutex
	entries  map[string]similarity.Entry
	embedder driven.EmbeddingService
}

// NewChunkIndex creates a new in-memory chunk index.
// embedder may be nil; text search then reports retrieval unavailable.
func NewChunkIndex(embedder driven.EmbeddingService) *ChunkIndex {
	return &ChunkIndex{
		entries:  make(map[string]similarity.Entry),
		embedder: embedder,
	}
}

// Search ranks stored chunks against the embedded query text.
func (idx *ChunkIndex) Search(ctx context.Context, query domain.RetrievalQuery) ([]domain.Chunk, error) {
	vector, err := similarity.QueryVector(ctx, idx.embedder, query.QueryText)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	entries := make([]similarity.Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		entries = append(entries, e)
	}
	idx.mu.RUnlock()

	return similarity.Rank(vector, entries, query), nil
}

// FetchContent returns a chunk's content and source label.
func (idx *ChunkIndex) FetchContent(_ context.Context, chunkID string) (domain.ChunkContent, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.entries[chunkID]
	if !ok {
		return domain.ChunkContent{}, fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
	}
	return domain.ChunkContent{
		Content: e.Chunk.Content,
		Source:  similarity.SourceLabel(e.Chunk.Metadata),
	}, nil
}

// Put stores or replaces chunks.
func (idx *ChunkIndex) Put(ctx context.Context, chunks []driven.IndexedChunk) error {
	entries, err := similarity.Entries(ctx, idx.embedder, chunks)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, e := range entries {
		idx.entries[e.Chunk.ID] = e
	}
	return nil
}

// Delete removes chunks by ID.
func (idx *ChunkIndex) Delete(_ context.Context, ids []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, id := range ids {
		delete(idx.entries, id)
	}
	return nil
}

// Count returns the number of stored chunks.
func (idx *ChunkIndex) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

// Close is a no-op for the memory index.
func (idx *ChunkIndex) Close() error {
	return nil
}
