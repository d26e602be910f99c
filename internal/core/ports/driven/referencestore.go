package driven

import (
	"context"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// ReferenceStore persists draft references.
//
// Implementations own the uniqueness invariant: Insert must check for an
// existing (ChunkID, ParagraphIndex) pair and insert atomically with respect
// to concurrent writers on the same draft. Writers on different drafts must
// not block each other. Readers must never observe a partially written record.
type ReferenceStore interface {
	// Insert appends a reference to its draft, creating the draft on first use.
	// Returns domain.ErrDuplicateReference if the draft already has a reference
	// with the same chunk and paragraph.
	Insert(ctx context.Context, ref domain.Reference) error

	// List returns the draft's references in insertion order.
	// Returns an empty slice for an unknown draft.
	List(ctx context.Context, draftID string) ([]domain.Reference, error)

	// Delete removes one reference from a draft.
	// Returns domain.ErrDraftNotFound if the draft has no reference set and
	// domain.ErrReferenceNotFound if the draft exists but the id does not.
	Delete(ctx context.Context, draftID, referenceID string) error

	// Close releases resources.
	Close() error
}
