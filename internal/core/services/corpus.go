package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
	"github.com/custodia-labs/prism/internal/core/ports/driving"
	"github.com/custodia-labs/prism/internal/logger"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusService = (*CorpusService)(nil)

// importBatchSize bounds the chunks handed to the index per Put.
const importBatchSize = 256

// CorpusService writes chunks into a ChunkIndex.
type CorpusService struct {
	index driven.ChunkIndex
	log   *logger.Logger
}

// NewCorpusService creates a corpus service over the given index.
func NewCorpusService(index driven.ChunkIndex) *CorpusService {
	return &CorpusService{
		index: index,
		log:   logger.For("corpus"),
	}
}

// Import validates every record before storing any, then writes in batches.
// A failed batch leaves earlier batches stored.
func (s *CorpusService) Import(ctx context.Context, records []domain.ChunkRecord) (int, error) {
	if s.index == nil {
		return 0, domain.ErrRetrievalUnavailable
	}

	seen := make(map[string]bool, len(records))
	chunks := make([]driven.IndexedChunk, len(records))
	for i := range records {
		r := &records[i]
		if strings.TrimSpace(r.ID) == "" {
			return 0, fmt.Errorf("record %d has no id: %w", i, domain.ErrInvalidInput)
		}
		if strings.TrimSpace(r.DocumentID) == "" {
			return 0, fmt.Errorf("chunk %s has no document id: %w", r.ID, domain.ErrInvalidInput)
		}
		if seen[r.ID] {
			return 0, fmt.Errorf("chunk %s appears twice: %w", r.ID, domain.ErrInvalidInput)
		}
		seen[r.ID] = true
		chunks[i] = driven.IndexedChunk{Chunk: r.Chunk, Embedding: r.Embedding}
	}

	stored := 0
	for start := 0; start < len(chunks); start += importBatchSize {
		end := min(start+importBatchSize, len(chunks))
		if err := s.index.Put(ctx, chunks[start:end]); err != nil {
			return stored, fmt.Errorf("import chunks %d-%d: %w", start, end-1, err)
		}
		stored = end
		s.log.Debug("stored %d/%d chunks", stored, len(chunks))
	}

	s.log.Info("imported %d chunks", stored)
	return stored, nil
}

// Remove deletes chunks by ID.
func (s *CorpusService) Remove(ctx context.Context, ids []string) error {
	if s.index == nil {
		return domain.ErrRetrievalUnavailable
	}
	return s.index.Delete(ctx, ids)
}

// Count returns the number of stored chunks.
func (s *CorpusService) Count(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, domain.ErrRetrievalUnavailable
	}
	return s.index.Count(ctx)
}
