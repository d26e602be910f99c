// Package similarity provides brute-force vector ranking shared by the
// in-memory and BoltDB chunk corpora.
package similarity

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
)

// Entry is a stored chunk with its embedding.
type Entry struct {
	Chunk  domain.Chunk
	Vector []float32
}

// Cosine returns the cosine similarity of a and b clamped to [0,1].
// Mismatched or zero-length vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	default:
		return sim
	}
}

// Rank scores every in-scope entry against the query vector and returns
// chunks at or above the threshold, best first, at most query.TopK.
// Ties keep chunk ID order so results are deterministic. Returned chunks
// carry their own metadata copies.
func Rank(vector []float32, entries []Entry, query domain.RetrievalQuery) []domain.Chunk {
	scored := make([]domain.Chunk, 0, len(entries))
	for i := range entries {
		if !query.InScope(entries[i].Chunk) {
			continue
		}
		sim := Cosine(vector, entries[i].Vector)
		if sim < query.SimilarityThreshold {
			continue
		}
		chunk := entries[i].Chunk
		chunk.Similarity = sim
		scored = append(scored, chunk)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].ID < scored[j].ID
	})

	if query.TopK > 0 && len(scored) > query.TopK {
		scored = scored[:query.TopK]
	}
	for i := range scored {
		scored[i].Metadata = scored[i].Metadata.Clone()
	}
	return scored
}

// SourceLabel renders a chunk's display source, e.g. "guide.pdf (p.12)".
func SourceLabel(meta domain.ChunkMetadata) string {
	if meta.Source == "" {
		return ""
	}
	if meta.Page > 0 {
		return meta.Source + " (p." + strconv.Itoa(meta.Page) + ")"
	}
	return meta.Source
}

// Entries pairs chunks with their vectors, embedding any chunk that
// arrives without one. A nil embedder rejects chunks lacking vectors.
func Entries(ctx context.Context, embedder driven.EmbeddingService, chunks []driven.IndexedChunk) ([]Entry, error) {
	entries := make([]Entry, len(chunks))
	var (
		missing []int
		texts   []string
	)
	for i, c := range chunks {
		if c.Chunk.ID == "" {
			return nil, fmt.Errorf("chunk %d has no id: %w", i, domain.ErrInvalidInput)
		}
		entries[i] = Entry{Chunk: c.Chunk, Vector: c.Embedding}
		entries[i].Chunk.Metadata = c.Chunk.Metadata.Clone()
		entries[i].Chunk.Similarity = 0
		if len(c.Embedding) == 0 {
			missing = append(missing, i)
			texts = append(texts, c.Chunk.Content)
		}
	}
	if len(missing) == 0 {
		return entries, nil
	}
	if embedder == nil {
		return nil, fmt.Errorf("%d chunks lack embeddings: %w", len(missing), domain.ErrEmbeddingUnavailable)
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks: %w",
			len(vectors), len(missing), domain.ErrEmbeddingUnavailable)
	}
	for j, i := range missing {
		entries[i].Vector = vectors[j]
	}
	return entries, nil
}

// QueryVector embeds the query text for ranking.
func QueryVector(ctx context.Context, embedder driven.EmbeddingService, text string) ([]float32, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrRetrievalUnavailable)
	}
	vector, err := embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrievalUnavailable, err)
	}
	return vector, nil
}
