package driving

import (
	"context"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// RetrievalService provides similarity search over the chunk corpus.
type RetrievalService interface {
	// Search returns chunks with similarity at or above the query threshold,
	// in descending similarity order, at most TopK of them.
	// Returns domain.ErrRetrievalUnavailable if the corpus cannot be reached.
	Search(ctx context.Context, query domain.RetrievalQuery) ([]domain.Chunk, error)

	// SearchStructural returns the heading chunks relevant to a topic.
	// A topK of zero uses domain.StructuralTopK.
	SearchStructural(ctx context.Context, topic string, docIDs []string, topK int) ([]domain.Chunk, error)
}
