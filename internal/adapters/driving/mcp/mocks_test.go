package mcp

import (
	"context"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// mockOutlineService is a mock implementation of driving.OutlineService.
type mockOutlineService struct {
	result    *domain.OutlineResult
	err       error
	templates []domain.OutlineTemplate
	lastReq   domain.OutlineRequest
}

func (m *mockOutlineService) Generate(_ context.Context, req domain.OutlineRequest) (*domain.OutlineResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockOutlineService) Templates() []domain.OutlineTemplate {
	return m.templates
}

// mockReferenceService is a mock implementation of driving.ReferenceService.
type mockReferenceService struct {
	ref        *domain.Reference
	refs       []domain.EnrichedReference
	err        error
	lastAttach domain.AttachRequest
	lastDraft  string
	lastRefID  string
}

func (m *mockReferenceService) Attach(_ context.Context, req domain.AttachRequest) (*domain.Reference, error) {
	m.lastAttach = req
	return m.ref, m.err
}

func (m *mockReferenceService) List(_ context.Context, draftID string) ([]domain.EnrichedReference, error) {
	m.lastDraft = draftID
	return m.refs, m.err
}

func (m *mockReferenceService) Remove(_ context.Context, draftID, referenceID string) error {
	m.lastDraft = draftID
	m.lastRefID = referenceID
	return m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	chunks     []domain.Chunk
	err        error
	lastQuery  domain.RetrievalQuery
	structural bool
}

func (m *mockRetrievalService) Search(_ context.Context, query domain.RetrievalQuery) ([]domain.Chunk, error) {
	m.lastQuery = query
	return m.chunks, m.err
}

func (m *mockRetrievalService) SearchStructural(
	_ context.Context,
	topic string,
	docIDs []string,
	topK int,
) ([]domain.Chunk, error) {
	m.structural = true
	m.lastQuery = domain.RetrievalQuery{QueryText: topic, DocumentIDs: docIDs, TopK: topK}
	return m.chunks, m.err
}

func newTestServer(outline *mockOutlineService, refs *mockReferenceService) *Server {
	server, err := NewServer(&Ports{Outline: outline, References: refs})
	if err != nil {
		panic(err)
	}
	return server
}
