package driving

import (
	"context"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// ReferenceService manages references from draft paragraphs to source chunks.
type ReferenceService interface {
	// Attach creates a reference.
	// Returns domain.ErrDuplicateReference if the chunk is already
	// referenced from the same paragraph of the draft.
	Attach(ctx context.Context, req domain.AttachRequest) (*domain.Reference, error)

	// List returns the draft's references with chunk content resolved.
	// Returns an empty slice for an unknown draft.
	List(ctx context.Context, draftID string) ([]domain.EnrichedReference, error)

	// Remove deletes a reference.
	// Returns domain.ErrDraftNotFound or domain.ErrReferenceNotFound.
	Remove(ctx context.Context, draftID, referenceID string) error
}
