// Package memory provides in-memory implementations of the storage ports.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
)

// Ensure ReferenceStore implements the interface.
var _ driven.ReferenceStore = (*ReferenceStore)(nil)

// ReferenceStore is an in-memory implementation of driven.ReferenceStore.
//
// Each draft has its own lock, so writers on one draft never wait for
// another. The outer lock only guards the draft map itself.
type ReferenceStore struct {
	mu     sync.RWMutex
	drafts map[string]*draftRefs
}

// draftRefs holds one draft's references in insertion order.
type draftRefs struct {
	mu   sync.RWMutex
	refs []domain.Reference
}

// NewReferenceStore creates a new in-memory reference store.
func NewReferenceStore() *ReferenceStore {
	return &ReferenceStore{
		drafts: make(map[string]*draftRefs),
	}
}

// draft returns the draft's reference set, creating it when create is true.
func (s *ReferenceStore) draft(id string, create bool) *draftRefs {
	s.mu.RLock()
	d, ok := s.drafts[id]
	s.mu.RUnlock()
	if ok || !create {
		return d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok = s.drafts[id]; !ok {
		d = &draftRefs{}
		s.drafts[id] = d
	}
	return d
}

// Insert appends a reference unless its chunk and paragraph are taken.
func (s *ReferenceStore) Insert(_ context.Context, ref domain.Reference) error {
	d := s.draft(ref.DraftID, true)

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.refs {
		if d.refs[i].SameTarget(ref) {
			return domain.ErrDuplicateReference
		}
	}
	d.refs = append(d.refs, ref)
	return nil
}

// List returns a copy of the draft's references.
func (s *ReferenceStore) List(_ context.Context, draftID string) ([]domain.Reference, error) {
	d := s.draft(draftID, false)
	if d == nil {
		return []domain.Reference{}, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Reference, len(d.refs))
	copy(out, d.refs)
	return out, nil
}

// Delete removes one reference from a draft.
func (s *ReferenceStore) Delete(_ context.Context, draftID, referenceID string) error {
	d := s.draft(draftID, false)
	if d == nil {
		return domain.ErrDraftNotFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.refs {
		if d.refs[i].ID == referenceID {
			d.refs = append(d.refs[:i:i], d.refs[i+1:]...)
			return nil
		}
	}
	return domain.ErrReferenceNotFound
}

// Close is a no-op for the memory store.
func (s *ReferenceStore) Close() error {
	return nil
}
