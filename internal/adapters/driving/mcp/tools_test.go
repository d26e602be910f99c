package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prism/internal/core/domain"
)

func TestServer_handleGenerateOutline(t *testing.T) {
	ctx := context.Background()

	t.Run("returns outline", func(t *testing.T) {
		outline := &mockOutlineService{result: &domain.OutlineResult{
			Outline:     []domain.OutlineItem{{Title: "Intro", Depth: 1}, {Title: "Setup", Depth: 2}},
			Topic:       "Go",
			SourcesUsed: 2,
		}}
		server := newTestServer(outline, &mockReferenceService{})

		_, output, err := server.handleGenerateOutline(ctx, nil, GenerateOutlineInput{
			Topic:       "Go",
			DocumentIDs: []string{"a", "b"},
			MaxDepth:    2,
		})

		require.NoError(t, err)
		assert.Equal(t, "Go", output.Topic)
		assert.Equal(t, 2, output.SourcesUsed)
		assert.Equal(t, []OutlineItemOutput{{Title: "Intro", Depth: 1}, {Title: "Setup", Depth: 2}}, output.Outline)
		assert.Equal(t, domain.OutlineRequest{Topic: "Go", DocumentIDs: []string{"a", "b"}, MaxDepth: 2}, outline.lastReq)
	})

	t.Run("maps errors", func(t *testing.T) {
		outline := &mockOutlineService{err: domain.ErrGenerationFailed}
		server := newTestServer(outline, &mockReferenceService{})

		_, _, err := server.handleGenerateOutline(ctx, nil, GenerateOutlineInput{Topic: "Go"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrGenerationFailed)
		assert.Contains(t, err.Error(), "try again later")
	})
}

func TestServer_handleListTemplates(t *testing.T) {
	outline := &mockOutlineService{templates: []domain.OutlineTemplate{{
		ID:      "blog",
		Name:    "Blog Post",
		Outline: []domain.OutlineItem{{Title: "Introduction", Depth: 1}},
	}}}
	server := newTestServer(outline, &mockReferenceService{})

	_, output, err := server.handleListTemplates(context.Background(), nil, ListTemplatesInput{})

	require.NoError(t, err)
	require.Len(t, output.Templates, 1)
	assert.Equal(t, "blog", output.Templates[0].ID)
	assert.Equal(t, "Introduction", output.Templates[0].Outline[0].Title)
}

func TestServer_handleAttachReference(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("attaches", func(t *testing.T) {
		refs := &mockReferenceService{ref: &domain.Reference{
			ID: "r1", DraftID: "d", ChunkID: "c", ParagraphIndex: 3,
			Type: domain.ReferenceQuote, CreatedAt: created,
		}}
		server := newTestServer(&mockOutlineService{}, refs)

		_, output, err := server.handleAttachReference(ctx, nil, AttachReferenceInput{
			DraftID: "d", ChunkID: "c", ParagraphIndex: 3, ReferenceType: "quote",
		})

		require.NoError(t, err)
		assert.Equal(t, "r1", output.ID)
		assert.Equal(t, "quote", output.ReferenceType)
		assert.Equal(t, "2026-01-02T03:04:05Z", output.CreatedAt)
		assert.Equal(t, domain.ReferenceQuote, refs.lastAttach.Type)
	})

	t.Run("duplicate", func(t *testing.T) {
		refs := &mockReferenceService{err: domain.ErrDuplicateReference}
		server := newTestServer(&mockOutlineService{}, refs)

		_, _, err := server.handleAttachReference(ctx, nil, AttachReferenceInput{DraftID: "d", ChunkID: "c"})

		assert.ErrorIs(t, err, domain.ErrDuplicateReference)
		assert.Contains(t, err.Error(), "already referenced")
	})
}

func TestServer_handleListReferences(t *testing.T) {
	source := "guide.pdf"
	refs := &mockReferenceService{refs: []domain.EnrichedReference{
		{
			Reference:    domain.Reference{ID: "r1", DraftID: "d", ChunkID: "c1", Type: domain.ReferenceCitation},
			ChunkContent: "text",
			ChunkSource:  &source,
		},
		{
			Reference:    domain.Reference{ID: "r2", DraftID: "d", ChunkID: "c2", ParagraphIndex: 1, Type: domain.ReferenceSummary},
			ChunkContent: domain.PlaceholderChunkContent,
		},
	}}
	server := newTestServer(&mockOutlineService{}, refs)

	_, output, err := server.handleListReferences(context.Background(), nil, ListReferencesInput{DraftID: "d"})

	require.NoError(t, err)
	assert.Equal(t, "d", refs.lastDraft)
	assert.Equal(t, 2, output.Count)
	assert.Equal(t, "text", output.References[0].ChunkContent)
	require.NotNil(t, output.References[0].ChunkSource)
	assert.Equal(t, "guide.pdf", *output.References[0].ChunkSource)
	assert.Nil(t, output.References[1].ChunkSource)
	assert.Equal(t, "summary", output.References[1].ReferenceType)
}

func TestServer_handleRemoveReference(t *testing.T) {
	ctx := context.Background()

	t.Run("removes", func(t *testing.T) {
		refs := &mockReferenceService{}
		server := newTestServer(&mockOutlineService{}, refs)

		_, output, err := server.handleRemoveReference(ctx, nil, RemoveReferenceInput{DraftID: "d", ReferenceID: "r"})

		require.NoError(t, err)
		assert.True(t, output.Removed)
		assert.Equal(t, "r", refs.lastRefID)
	})

	t.Run("not found", func(t *testing.T) {
		for _, want := range []error{domain.ErrDraftNotFound, domain.ErrReferenceNotFound} {
			server := newTestServer(&mockOutlineService{}, &mockReferenceService{err: want})

			_, output, err := server.handleRemoveReference(ctx, nil, RemoveReferenceInput{DraftID: "d", ReferenceID: "r"})

			assert.ErrorIs(t, err, want)
			assert.False(t, output.Removed)
		}
	})
}

func TestServer_handleSearchChunks(t *testing.T) {
	ctx := context.Background()
	retrieval := &mockRetrievalService{chunks: []domain.Chunk{{
		ID: "c1", DocumentID: "d1", Content: "text", Similarity: 0.9,
		Metadata: domain.ChunkMetadata{Header: "Intro", HeaderLevel: domain.HeaderLevel(1)},
	}}}
	server, err := NewServer(&Ports{
		Outline:    &mockOutlineService{},
		References: &mockReferenceService{},
		Retrieval:  retrieval,
	})
	require.NoError(t, err)

	t.Run("content search uses defaults", func(t *testing.T) {
		_, output, err := server.handleSearchChunks(ctx, nil, SearchChunksInput{Query: "q"})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "Intro", output.Chunks[0].Header)
		assert.Equal(t, domain.DefaultTopK, retrieval.lastQuery.TopK)
		assert.InDelta(t, domain.DefaultSimilarityThreshold, retrieval.lastQuery.SimilarityThreshold, 1e-9)
	})

	t.Run("structural search", func(t *testing.T) {
		_, _, err := server.handleSearchChunks(ctx, nil, SearchChunksInput{Query: "q", Structural: true, DocumentIDs: []string{"d1"}})

		require.NoError(t, err)
		assert.True(t, retrieval.structural)
		assert.Equal(t, []string{"d1"}, retrieval.lastQuery.DocumentIDs)
	})

	t.Run("unavailable", func(t *testing.T) {
		retrieval.err = domain.ErrRetrievalUnavailable
		defer func() { retrieval.err = nil }()

		_, _, err := server.handleSearchChunks(ctx, nil, SearchChunksInput{Query: "q"})

		assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
	})
}

func TestToolError(t *testing.T) {
	assert.NoError(t, toolError(nil))

	plain := errors.New("boom")
	assert.Equal(t, plain, toolError(plain))

	err := toolError(domain.ErrInvalidInput)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "invalid arguments")
}
