package mcp

import (
	"github.com/custodia-labs/prism/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Outline generates outlines and lists templates.
	Outline driving.OutlineService

	// References manages draft references.
	References driving.ReferenceService

	// Retrieval searches the chunk corpus. Optional; search_chunks is
	// only registered when set.
	Retrieval driving.RetrievalService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Outline == nil {
		return ErrMissingOutlineService
	}
	if p.References == nil {
		return ErrMissingReferenceService
	}
	return nil
}
