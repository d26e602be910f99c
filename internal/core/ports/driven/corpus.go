package driven

import (
	"context"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// ChunkSearcher performs similarity search over the chunk corpus.
// Failures to reach the underlying index should wrap domain.ErrRetrievalUnavailable.
type ChunkSearcher interface {
	// Search returns chunks in scope ranked by descending similarity.
	Search(ctx context.Context, query domain.RetrievalQuery) ([]domain.Chunk, error)
}

// ChunkContentSource resolves chunk content for display.
// Lookups are best-effort; callers substitute a placeholder on error.
type ChunkContentSource interface {
	// FetchContent returns the content and source label of a chunk.
	// Returns domain.ErrNotFound if the chunk does not exist.
	FetchContent(ctx context.Context, chunkID string) (domain.ChunkContent, error)
}

// ChunkIndex is a writable corpus that serves both search and content lookup.
type ChunkIndex interface {
	ChunkSearcher
	ChunkContentSource

	// Put stores or replaces chunks with their embeddings.
	// Chunks without an embedding are embedded with the configured EmbeddingService.
	Put(ctx context.Context, chunks []IndexedChunk) error

	// Delete removes chunks by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// IndexedChunk is a chunk paired with its embedding for storage.
type IndexedChunk struct {
	Chunk     domain.Chunk
	Embedding []float32
}
