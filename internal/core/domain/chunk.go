package domain

import "maps"

// Chunk represents a retrievable unit of source-document text.
// The core treats chunks as read-only values owned by the retrieval backend.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"id" yaml:"id"`

	// DocumentID links to the source document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// UserID is the owner of the source document.
	UserID string `json:"user_id,omitempty" yaml:"user_id,omitempty"`

	// Content is the text content of this chunk.
	Content string `json:"content" yaml:"content"`

	// Metadata describes where the chunk sits in its document.
	Metadata ChunkMetadata `json:"metadata" yaml:"metadata"`

	// Similarity is the score against the query, in [0,1].
	// Zero for chunks that were not produced by a search.
	Similarity float64 `json:"similarity" yaml:"-"`
}

// ChunkMetadata holds the structural attributes of a chunk.
type ChunkMetadata struct {
	// Header is the nearest heading text, if any.
	Header string `json:"header,omitempty" yaml:"header,omitempty"`

	// HeaderLevel is the heading level when the chunk is a heading.
	// Nil for body text.
	HeaderLevel *int `json:"header_level,omitempty" yaml:"header_level,omitempty"`

	// Source is a human-readable label such as "handbook.pdf (p.12)".
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Page is the page number within the source document, if known.
	Page int `json:"page,omitempty" yaml:"page,omitempty"`

	// Extra carries backend-specific attributes.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// IsStructural reports whether the chunk carries a heading level.
func (c Chunk) IsStructural() bool {
	return c.Metadata.HeaderLevel != nil
}

// Clone returns a copy that shares no pointers or maps with m.
func (m ChunkMetadata) Clone() ChunkMetadata {
	if m.HeaderLevel != nil {
		m.HeaderLevel = HeaderLevel(*m.HeaderLevel)
	}
	m.Extra = maps.Clone(m.Extra)
	return m
}

// HeaderLevel is a convenience for building metadata literals.
func HeaderLevel(level int) *int {
	return &level
}

// Default retrieval parameters.
const (
	// DefaultTopK is the result cap for content search.
	DefaultTopK = 10

	// DefaultSimilarityThreshold is the minimum score for content search.
	DefaultSimilarityThreshold = 0.7

	// StructuralTopK is the result cap for structural search.
	StructuralTopK = 50

	// StructuralSimilarityThreshold is lower than the content threshold
	// because heading text is short and matches weakly.
	StructuralSimilarityThreshold = 0.5
)

// RetrievalQuery is a scoped similarity search request.
type RetrievalQuery struct {
	// QueryText is the natural-language query.
	QueryText string

	// UserID limits results to one owner. Empty means unscoped.
	UserID string

	// DocumentIDs limits results to these documents. Empty means unscoped.
	DocumentIDs []string

	// TopK caps the number of results. Must be at least 1.
	TopK int

	// SimilarityThreshold is the minimum similarity, in [0,1].
	SimilarityThreshold float64
}

// Validate checks the query bounds.
func (q RetrievalQuery) Validate() error {
	if q.TopK < 1 {
		return ErrInvalidInput
	}
	if q.SimilarityThreshold < 0 || q.SimilarityThreshold > 1 {
		return ErrInvalidInput
	}
	return nil
}

// InScope reports whether a chunk passes the query's user and document filters.
func (q RetrievalQuery) InScope(c Chunk) bool {
	if q.UserID != "" && c.UserID != q.UserID {
		return false
	}
	if len(q.DocumentIDs) == 0 {
		return true
	}
	for _, id := range q.DocumentIDs {
		if id == c.DocumentID {
			return true
		}
	}
	return false
}

// ChunkContent is the display view of a chunk used to enrich references.
type ChunkContent struct {
	// Content is the chunk text.
	Content string

	// Source is a human-readable source label. Empty when unknown.
	Source string
}

// ChunkRecord is a chunk with an optional precomputed embedding,
// the unit of corpus import files.
type ChunkRecord struct {
	Chunk `yaml:",inline"`

	// Embedding is used as-is when present; otherwise the chunk is embedded on import.
	Embedding []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
}
