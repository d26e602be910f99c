package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
)

// keywordEmbedder maps text onto fixed axes by keyword.
type keywordEmbedder struct {
	err error
}

var keywordAxes = []string{"go", "rust", "python"}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, len(keywordAxes))
	lower := strings.ToLower(text)
	for i, kw := range keywordAxes {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *keywordEmbedder) Dimensions() int { return len(keywordAxes) }
func (e *keywordEmbedder) ModelName() string { return "keyword" }
func (e *keywordEmbedder) Ping(_ context.Context) error { return e.err }
func (e *keywordEmbedder) Close() error { return nil }

func seedIndex(t *testing.T, idx *ChunkIndex) {
	t.Helper()
	level := domain.HeaderLevel(1)
	require.NoError(t, idx.Put(context.Background(), []driven.IndexedChunk{
		{Chunk: domain.Chunk{ID: "c1", DocumentID: "d1", UserID: "u1", Content: "Go concurrency",
			Metadata: domain.ChunkMetadata{Header: "Go", HeaderLevel: level, Source: "go.md", Page: 3}}},
		{Chunk: domain.Chunk{ID: "c2", DocumentID: "d2", UserID: "u1", Content: "Rust ownership"}},
		{Chunk: domain.Chunk{ID: "c3", DocumentID: "d1", UserID: "u2", Content: "Go and Python"}},
		{Chunk: domain.Chunk{ID: "c4", DocumentID: "d3", Content: "Python packaging"},
			Embedding: []float32{0, 0, 1}},
	}))
}

func TestChunkIndex_Search(t *testing.T) {
	idx := NewChunkIndex(&keywordEmbedder{})
	seedIndex(t, idx)

	chunks, err := idx.Search(context.Background(), domain.RetrievalQuery{
		QueryText:           "go",
		TopK:                10,
		SimilarityThreshold: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "c1", chunks[0].ID)
	assert.InDelta(t, 1.0, chunks[0].Similarity, 1e-9)
	assert.Equal(t, "c3", chunks[1].ID)
}

func TestChunkIndex_SearchScoped(t *testing.T) {
	idx := NewChunkIndex(&keywordEmbedder{})
	seedIndex(t, idx)

	chunks, err := idx.Search(context.Background(), domain.RetrievalQuery{
		QueryText:   "go",
		UserID:      "u1",
		DocumentIDs: []string{"d1"},
		TopK:        10,
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c1", chunks[0].ID)
}

func TestChunkIndex_SearchWithoutEmbedder(t *testing.T) {
	idx := NewChunkIndex(nil)

	_, err := idx.Search(context.Background(), domain.RetrievalQuery{QueryText: "go", TopK: 10})
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestChunkIndex_SearchEmbedFailure(t *testing.T) {
	idx := NewChunkIndex(&keywordEmbedder{err: errors.New("boom")})

	_, err := idx.Search(context.Background(), domain.RetrievalQuery{QueryText: "go", TopK: 10})
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestChunkIndex_PutWithoutEmbedder(t *testing.T) {
	idx := NewChunkIndex(nil)
	ctx := context.Background()

	err := idx.Put(ctx, []driven.IndexedChunk{{Chunk: domain.Chunk{ID: "c1", Content: "go"}}})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	require.NoError(t, idx.Put(ctx, []driven.IndexedChunk{
		{Chunk: domain.Chunk{ID: "c1", Content: "go"}, Embedding: []float32{1, 0, 0}},
	}))
	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChunkIndex_PutRejectsMissingID(t *testing.T) {
	idx := NewChunkIndex(&keywordEmbedder{})

	err := idx.Put(context.Background(), []driven.IndexedChunk{{Chunk: domain.Chunk{Content: "go"}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChunkIndex_FetchContent(t *testing.T) {
	idx := NewChunkIndex(&keywordEmbedder{})
	seedIndex(t, idx)
	ctx := context.Background()

	content, err := idx.FetchContent(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Go concurrency", content.Content)
	assert.Equal(t, "go.md (p.3)", content.Source)

	content, err = idx.FetchContent(ctx, "c2")
	require.NoError(t, err)
	assert.Empty(t, content.Source)

	_, err = idx.FetchContent(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkIndex_DeleteAndCount(t *testing.T) {
	idx := NewChunkIndex(&keywordEmbedder{})
	seedIndex(t, idx)
	ctx := context.Background()

	require.NoError(t, idx.Delete(ctx, []string{"c1", "unknown"}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = idx.FetchContent(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
