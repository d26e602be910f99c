package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
	"github.com/custodia-labs/prism/internal/core/ports/driving"
	"github.com/custodia-labs/prism/internal/logger"
)

// Ensure ReferenceService implements the interface.
var _ driving.ReferenceService = (*ReferenceService)(nil)

// maxConcurrentFetches bounds parallel chunk content lookups in List.
const maxConcurrentFetches = 8

// ReferenceService manages draft references and enriches them on read.
// The store enforces uniqueness; the service assigns ids and timestamps.
type ReferenceService struct {
	store   driven.ReferenceStore
	content driven.ChunkContentSource
	now     func() time.Time
	log     *logger.Logger
}

// NewReferenceService creates a reference service.
// content may be nil, in which case listings carry placeholder content.
func NewReferenceService(store driven.ReferenceStore, content driven.ChunkContentSource) *ReferenceService {
	return &ReferenceService{
		store:   store,
		content: content,
		now:     time.Now,
		log:     logger.For("references"),
	}
}

// Attach creates a reference from a draft paragraph to a chunk.
func (s *ReferenceService) Attach(ctx context.Context, req domain.AttachRequest) (*domain.Reference, error) {
	if strings.TrimSpace(req.DraftID) == "" {
		return nil, fmt.Errorf("draft id is empty: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.ChunkID) == "" {
		return nil, fmt.Errorf("chunk id is empty: %w", domain.ErrInvalidInput)
	}
	if req.ParagraphIndex < 0 {
		return nil, fmt.Errorf("paragraph index %d is negative: %w", req.ParagraphIndex, domain.ErrInvalidInput)
	}
	refType := req.Type
	if refType == "" {
		refType = domain.ReferenceCitation
	}
	if !refType.IsValid() {
		return nil, fmt.Errorf("reference type %q: %w", refType, domain.ErrInvalidInput)
	}

	ref := domain.Reference{
		ID:             uuid.NewString(),
		DraftID:        req.DraftID,
		ChunkID:        req.ChunkID,
		ParagraphIndex: req.ParagraphIndex,
		Type:           refType,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.store.Insert(ctx, ref); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			s.log.Debug("draft %s already references chunk %s at paragraph %d",
				req.DraftID, req.ChunkID, req.ParagraphIndex)
			return nil, err
		}
		return nil, fmt.Errorf("attach reference: %w", err)
	}

	s.log.Debug("attached %s to draft %s", ref.ID, ref.DraftID)
	return &ref, nil
}

// List returns the draft's references with chunk content resolved.
func (s *ReferenceService) List(ctx context.Context, draftID string) ([]domain.EnrichedReference, error) {
	if strings.TrimSpace(draftID) == "" {
		return nil, fmt.Errorf("draft id is empty: %w", domain.ErrInvalidInput)
	}

	refs, err := s.store.List(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}

	resolved := s.resolveAll(ctx, refs)

	out := make([]domain.EnrichedReference, len(refs))
	for i, ref := range refs {
		out[i] = resolved[ref.ChunkID].apply(ref)
	}
	return out, nil
}

// Remove deletes a reference from a draft.
func (s *ReferenceService) Remove(ctx context.Context, draftID, referenceID string) error {
	if strings.TrimSpace(draftID) == "" || strings.TrimSpace(referenceID) == "" {
		return fmt.Errorf("draft and reference ids are required: %w", domain.ErrInvalidInput)
	}
	if err := s.store.Delete(ctx, draftID, referenceID); err != nil {
		return fmt.Errorf("remove reference %s: %w", referenceID, err)
	}
	s.log.Debug("removed %s from draft %s", referenceID, draftID)
	return nil
}

// enrichment is the outcome of one chunk content lookup.
type enrichment struct {
	content domain.ChunkContent
	ok      bool
}

// apply builds the enriched view of ref, using the placeholder when
// the lookup did not succeed.
func (e enrichment) apply(ref domain.Reference) domain.EnrichedReference {
	if !e.ok {
		return domain.EnrichedReference{
			Reference:    ref,
			ChunkContent: domain.PlaceholderChunkContent,
		}
	}
	enriched := domain.EnrichedReference{
		Reference:    ref,
		ChunkContent: e.content.Content,
	}
	if e.content.Source != "" {
		source := e.content.Source
		enriched.ChunkSource = &source
	}
	return enriched
}

// resolveAll looks up each distinct chunk once, concurrently.
func (s *ReferenceService) resolveAll(ctx context.Context, refs []domain.Reference) map[string]enrichment {
	results := make(map[string]enrichment, len(refs))
	if len(refs) == 0 {
		return results
	}
	if s.content == nil {
		s.log.Debug("no chunk content source configured, using placeholders")
		return results
	}

	seen := make(map[string]bool, len(refs))
	chunkIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		if !seen[ref.ChunkID] {
			seen[ref.ChunkID] = true
			chunkIDs = append(chunkIDs, ref.ChunkID)
		}
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, maxConcurrentFetches)
	)
	for _, id := range chunkIDs {
		wg.Add(1)
		go func(chunkID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			e := s.resolve(ctx, chunkID)
			mu.Lock()
			results[chunkID] = e
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	return results
}

func (s *ReferenceService) resolve(ctx context.Context, chunkID string) enrichment {
	content, err := s.content.FetchContent(ctx, chunkID)
	if err != nil {
		s.log.Warn("chunk %s content unavailable: %v", chunkID, err)
		return enrichment{}
	}
	return enrichment{content: content, ok: true}
}
