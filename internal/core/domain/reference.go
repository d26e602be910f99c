package domain

import "time"

// ReferenceType describes how a draft paragraph uses a source chunk.
type ReferenceType string

// Available reference types.
const (
	ReferenceCitation ReferenceType = "citation"
	ReferenceSummary  ReferenceType = "summary"
	ReferenceQuote    ReferenceType = "quote"
)

// IsValid returns true if the reference type is recognised.
func (t ReferenceType) IsValid() bool {
	switch t {
	case ReferenceCitation, ReferenceSummary, ReferenceQuote:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t ReferenceType) String() string {
	return string(t)
}

// AllReferenceTypes returns every reference type.
func AllReferenceTypes() []ReferenceType {
	return []ReferenceType{ReferenceCitation, ReferenceSummary, ReferenceQuote}
}

// Reference links a draft paragraph to a source chunk.
// Within one draft, (ChunkID, ParagraphIndex) is unique.
type Reference struct {
	ID             string        `json:"id"`
	DraftID        string        `json:"draft_id"`
	ChunkID        string        `json:"chunk_id"`
	ParagraphIndex int           `json:"paragraph_index"`
	Type           ReferenceType `json:"reference_type"`
	CreatedAt      time.Time     `json:"created_at"`
}

// SameTarget reports whether two references point the same chunk at the same paragraph.
func (r Reference) SameTarget(other Reference) bool {
	return r.ChunkID == other.ChunkID && r.ParagraphIndex == other.ParagraphIndex
}

// PlaceholderChunkContent is shown when chunk content cannot be resolved.
const PlaceholderChunkContent = "[chunk content unavailable]"

// EnrichedReference is a Reference with the chunk content resolved at read time.
// The enrichment is a view and is never persisted.
type EnrichedReference struct {
	Reference

	ChunkContent string `json:"chunk_content"`

	// ChunkSource is nil when the source label is unknown.
	ChunkSource *string `json:"chunk_source"`
}

// AttachRequest asks for a new reference on a draft.
type AttachRequest struct {
	DraftID        string
	ChunkID        string
	ParagraphIndex int

	// Type defaults to citation when empty.
	Type ReferenceType
}
