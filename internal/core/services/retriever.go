package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
	"github.com/custodia-labs/prism/internal/core/ports/driving"
	"github.com/custodia-labs/prism/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService performs similarity search over the chunk corpus.
type RetrievalService struct {
	searcher driven.ChunkSearcher
	log      *logger.Logger
}

// NewRetrievalService creates a retrieval service over the given searcher.
func NewRetrievalService(searcher driven.ChunkSearcher) *RetrievalService {
	return &RetrievalService{
		searcher: searcher,
		log:      logger.For("retrieval"),
	}
}

// Search returns chunks ranked by descending similarity.
// Whatever the backend returns, results below the threshold are dropped,
// the order is re-established and the list is capped at TopK.
func (s *RetrievalService) Search(ctx context.Context, query domain.RetrievalQuery) ([]domain.Chunk, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("retrieval query: %w", err)
	}
	if s.searcher == nil {
		return nil, domain.ErrRetrievalUnavailable
	}

	s.log.Debug("search %q top_k=%d threshold=%.2f docs=%d",
		query.QueryText, query.TopK, query.SimilarityThreshold, len(query.DocumentIDs))

	chunks, err := s.searcher.Search(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrRetrievalUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}

	results := make([]domain.Chunk, 0, len(chunks))
	for i := range chunks {
		if chunks[i].Similarity >= query.SimilarityThreshold && query.InScope(chunks[i]) {
			results = append(results, chunks[i])
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > query.TopK {
		results = results[:query.TopK]
	}

	s.log.Debug("search returned %d of %d candidates", len(results), len(chunks))
	return results, nil
}

// SearchStructural returns heading chunks relevant to a topic.
// It searches with the lower structural threshold and keeps only chunks
// that carry a header level, in the order the search returned them.
func (s *RetrievalService) SearchStructural(
	ctx context.Context,
	topic string,
	docIDs []string,
	topK int,
) ([]domain.Chunk, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("structural search topic: %w", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = domain.StructuralTopK
	}

	chunks, err := s.Search(ctx, domain.RetrievalQuery{
		QueryText:           topic,
		DocumentIDs:         docIDs,
		TopK:                topK,
		SimilarityThreshold: domain.StructuralSimilarityThreshold,
	})
	if err != nil {
		return nil, err
	}

	structural := make([]domain.Chunk, 0, len(chunks))
	for i := range chunks {
		if chunks[i].IsStructural() {
			structural = append(structural, chunks[i])
		}
	}

	s.log.Debug("structural filter kept %d of %d chunks", len(structural), len(chunks))
	return structural, nil
}
