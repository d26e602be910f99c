package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Prism resources.
	uriScheme = "prism://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "templates",
		Name:        "outline-templates",
		Description: "Preset outline templates",
		MIMEType:    "application/json",
	}, s.handleTemplatesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "drafts/{draftId}/references",
		Name:        "draft-references",
		Description: "References attached to a draft, with chunk content",
		MIMEType:    "application/json",
	}, s.handleReferencesResource)
}

// handleTemplatesResource returns the outline template catalog.
func (s *Server) handleTemplatesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	_, output, err := s.handleListTemplates(ctx, nil, ListTemplatesInput{})
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, output.Templates)
}

// handleReferencesResource returns a draft's enriched references.
func (s *Server) handleReferencesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract draftId from URI: prism://drafts/{draftId}/references
	draftID := extractDraftID(req.Params.URI)
	if draftID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	_, output, err := s.handleListReferences(ctx, nil, ListReferencesInput{DraftID: draftID})
	if err != nil {
		return nil, fmt.Errorf("listing references: %w", err)
	}
	return jsonResource(req.Params.URI, output.References)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDraftID extracts the draft ID from a URI like prism://drafts/{draftId}/references.
func extractDraftID(uri string) string {
	const prefix = uriScheme + "drafts/"
	const suffix = "/references"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	id := strings.TrimSuffix(uri, suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
