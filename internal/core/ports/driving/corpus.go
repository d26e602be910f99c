package driving

import (
	"context"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// CorpusService manages the chunk corpus that retrieval searches.
type CorpusService interface {
	// Import stores or replaces chunks. Returns the number stored.
	// Returns domain.ErrInvalidInput if a record lacks an id or document id.
	Import(ctx context.Context, records []domain.ChunkRecord) (int, error)

	// Remove deletes chunks by ID. Unknown IDs are ignored.
	Remove(ctx context.Context, ids []string) error

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
}
