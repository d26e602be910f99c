package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// GenerateOutlineInput is the input schema for the generate_outline tool.
type GenerateOutlineInput struct {
	Topic       string   `json:"topic" jsonschema:"the subject of the outline"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"documents whose headings guide the outline; omit to skip retrieval"`
	MaxDepth    int      `json:"max_depth,omitempty" jsonschema:"deepest heading level from 1 to 5 (default 3)"`
}

// OutlineItemOutput is a single outline heading.
type OutlineItemOutput struct {
	Title string `json:"title"`
	Depth int    `json:"depth"`
}

// GenerateOutlineOutput is the output schema for the generate_outline tool.
type GenerateOutlineOutput struct {
	Outline     []OutlineItemOutput `json:"outline"`
	Topic       string              `json:"topic"`
	SourcesUsed int                 `json:"sources_used"`
}

// ListTemplatesInput is the input schema for the list_outline_templates tool.
type ListTemplatesInput struct{}

// TemplateOutput is one preset outline.
type TemplateOutput struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Outline     []OutlineItemOutput `json:"outline"`
}

// ListTemplatesOutput is the output schema for the list_outline_templates tool.
type ListTemplatesOutput struct {
	Templates []TemplateOutput `json:"templates"`
}

// AttachReferenceInput is the input schema for the attach_reference tool.
type AttachReferenceInput struct {
	DraftID        string `json:"draft_id" jsonschema:"the draft being written"`
	ChunkID        string `json:"chunk_id" jsonschema:"the source chunk to cite"`
	ParagraphIndex int    `json:"paragraph_index" jsonschema:"zero-based paragraph of the draft"`
	ReferenceType  string `json:"reference_type,omitempty" jsonschema:"citation, summary or quote (default citation)"`
}

// ReferenceOutput represents a stored reference.
type ReferenceOutput struct {
	ID             string `json:"id"`
	DraftID        string `json:"draft_id"`
	ChunkID        string `json:"chunk_id"`
	ParagraphIndex int    `json:"paragraph_index"`
	ReferenceType  string `json:"reference_type"`
	CreatedAt      string `json:"created_at"`
}

// ListReferencesInput is the input schema for the list_references tool.
type ListReferencesInput struct {
	DraftID string `json:"draft_id" jsonschema:"the draft whose references to list"`
}

// EnrichedReferenceOutput is a reference with its chunk content.
type EnrichedReferenceOutput struct {
	ID             string  `json:"id"`
	DraftID        string  `json:"draft_id"`
	ChunkID        string  `json:"chunk_id"`
	ParagraphIndex int     `json:"paragraph_index"`
	ReferenceType  string  `json:"reference_type"`
	CreatedAt      string  `json:"created_at"`
	ChunkContent   string  `json:"chunk_content"`
	ChunkSource    *string `json:"chunk_source"`
}

// ListReferencesOutput is the output schema for the list_references tool.
type ListReferencesOutput struct {
	References []EnrichedReferenceOutput `json:"references"`
	Count      int                       `json:"count"`
}

// RemoveReferenceInput is the input schema for the remove_reference tool.
type RemoveReferenceInput struct {
	DraftID     string `json:"draft_id" jsonschema:"the draft the reference belongs to"`
	ReferenceID string `json:"reference_id" jsonschema:"the reference to remove"`
}

// RemoveReferenceOutput is the output schema for the remove_reference tool.
type RemoveReferenceOutput struct {
	Removed bool `json:"removed"`
}

// SearchChunksInput is the input schema for the search_chunks tool.
type SearchChunksInput struct {
	Query       string   `json:"query" jsonschema:"natural-language query"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"limit results to these documents"`
	TopK        int      `json:"top_k,omitempty" jsonschema:"maximum number of chunks (default 10)"`
	Structural  bool     `json:"structural,omitempty" jsonschema:"return only heading chunks"`
}

// ChunkOutput is one search hit.
type ChunkOutput struct {
	ID          string  `json:"id"`
	DocumentID  string  `json:"document_id"`
	Content     string  `json:"content"`
	Header      string  `json:"header,omitempty"`
	HeaderLevel *int    `json:"header_level,omitempty"`
	Source      string  `json:"source,omitempty"`
	Similarity  float64 `json:"similarity"`
}

// SearchChunksOutput is the output schema for the search_chunks tool.
type SearchChunksOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_outline",
		Description: "Generate a document outline for a topic, guided by the headings of the given documents",
	}, s.handleGenerateOutline)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_outline_templates",
		Description: "List preset outline templates",
	}, s.handleListTemplates)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attach_reference",
		Description: "Attach a source chunk as a reference to a paragraph of a draft",
	}, s.handleAttachReference)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_references",
		Description: "List a draft's references with their chunk content",
	}, s.handleListReferences)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_reference",
		Description: "Remove a reference from a draft",
	}, s.handleRemoveReference)

	if s.ports.Retrieval != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "search_chunks",
			Description: "Search the chunk corpus by similarity",
		}, s.handleSearchChunks)
	}
}

func (s *Server) handleGenerateOutline(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateOutlineInput,
) (*mcp.CallToolResult, GenerateOutlineOutput, error) {
	result, err := s.ports.Outline.Generate(ctx, domain.OutlineRequest{
		Topic:       input.Topic,
		DocumentIDs: input.DocumentIDs,
		MaxDepth:    input.MaxDepth,
	})
	if err != nil {
		return nil, GenerateOutlineOutput{}, toolError(err)
	}

	return nil, GenerateOutlineOutput{
		Outline:     toItemOutputs(result.Outline),
		Topic:       result.Topic,
		SourcesUsed: result.SourcesUsed,
	}, nil
}

func (s *Server) handleListTemplates(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListTemplatesInput,
) (*mcp.CallToolResult, ListTemplatesOutput, error) {
	catalog := s.ports.Outline.Templates()

	output := ListTemplatesOutput{Templates: make([]TemplateOutput, len(catalog))}
	for i, t := range catalog {
		output.Templates[i] = TemplateOutput{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Outline:     toItemOutputs(t.Outline),
		}
	}
	return nil, output, nil
}

func (s *Server) handleAttachReference(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AttachReferenceInput,
) (*mcp.CallToolResult, ReferenceOutput, error) {
	ref, err := s.ports.References.Attach(ctx, domain.AttachRequest{
		DraftID:        input.DraftID,
		ChunkID:        input.ChunkID,
		ParagraphIndex: input.ParagraphIndex,
		Type:           domain.ReferenceType(input.ReferenceType),
	})
	if err != nil {
		return nil, ReferenceOutput{}, toolError(err)
	}
	return nil, toReferenceOutput(*ref), nil
}

func (s *Server) handleListReferences(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListReferencesInput,
) (*mcp.CallToolResult, ListReferencesOutput, error) {
	refs, err := s.ports.References.List(ctx, input.DraftID)
	if err != nil {
		return nil, ListReferencesOutput{}, toolError(err)
	}

	output := ListReferencesOutput{
		References: make([]EnrichedReferenceOutput, len(refs)),
		Count:      len(refs),
	}
	for i := range refs {
		ref := toReferenceOutput(refs[i].Reference)
		output.References[i] = EnrichedReferenceOutput{
			ID:             ref.ID,
			DraftID:        ref.DraftID,
			ChunkID:        ref.ChunkID,
			ParagraphIndex: ref.ParagraphIndex,
			ReferenceType:  ref.ReferenceType,
			CreatedAt:      ref.CreatedAt,
			ChunkContent:   refs[i].ChunkContent,
			ChunkSource:    refs[i].ChunkSource,
		}
	}
	return nil, output, nil
}

func (s *Server) handleRemoveReference(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveReferenceInput,
) (*mcp.CallToolResult, RemoveReferenceOutput, error) {
	if err := s.ports.References.Remove(ctx, input.DraftID, input.ReferenceID); err != nil {
		return nil, RemoveReferenceOutput{}, toolError(err)
	}
	return nil, RemoveReferenceOutput{Removed: true}, nil
}

func (s *Server) handleSearchChunks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchChunksInput,
) (*mcp.CallToolResult, SearchChunksOutput, error) {
	var (
		chunks []domain.Chunk
		err    error
	)
	if input.Structural {
		chunks, err = s.ports.Retrieval.SearchStructural(ctx, input.Query, input.DocumentIDs, input.TopK)
	} else {
		topK := input.TopK
		if topK <= 0 {
			topK = domain.DefaultTopK
		}
		chunks, err = s.ports.Retrieval.Search(ctx, domain.RetrievalQuery{
			QueryText:           input.Query,
			DocumentIDs:         input.DocumentIDs,
			TopK:                topK,
			SimilarityThreshold: domain.DefaultSimilarityThreshold,
		})
	}
	if err != nil {
		return nil, SearchChunksOutput{}, toolError(err)
	}

	output := SearchChunksOutput{
		Chunks: make([]ChunkOutput, len(chunks)),
		Count:  len(chunks),
	}
	for i := range chunks {
		output.Chunks[i] = ChunkOutput{
			ID:          chunks[i].ID,
			DocumentID:  chunks[i].DocumentID,
			Content:     chunks[i].Content,
			Header:      chunks[i].Metadata.Header,
			HeaderLevel: chunks[i].Metadata.HeaderLevel,
			Source:      chunks[i].Metadata.Source,
			Similarity:  chunks[i].Similarity,
		}
	}
	return nil, output, nil
}

func toItemOutputs(items []domain.OutlineItem) []OutlineItemOutput {
	out := make([]OutlineItemOutput, len(items))
	for i, item := range items {
		out[i] = OutlineItemOutput{Title: item.Title, Depth: item.Depth}
	}
	return out
}

func toReferenceOutput(ref domain.Reference) ReferenceOutput {
	return ReferenceOutput{
		ID:             ref.ID,
		DraftID:        ref.DraftID,
		ChunkID:        ref.ChunkID,
		ParagraphIndex: ref.ParagraphIndex,
		ReferenceType:  ref.Type.String(),
		CreatedAt:      ref.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
