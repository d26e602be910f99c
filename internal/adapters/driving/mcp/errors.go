// Package mcp provides an MCP (Model Context Protocol) server adapter for Prism.
// It lets AI assistants generate outlines and manage draft references.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/prism/internal/core/domain"
)

var (
	// ErrMissingOutlineService is returned when the outline service is not provided.
	ErrMissingOutlineService = errors.New("mcp: outline service is required")

	// ErrMissingReferenceService is returned when the reference service is not provided.
	ErrMissingReferenceService = errors.New("mcp: reference service is required")
)

// toolError turns a service error into the message an assistant sees.
// Known domain errors get a short explanation; anything else passes through.
func toolError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInvalidInput):
		return fmt.Errorf("invalid arguments: %w", err)
	case errors.Is(err, domain.ErrDuplicateReference):
		return fmt.Errorf("that chunk is already referenced from this paragraph: %w", err)
	case errors.Is(err, domain.ErrDraftNotFound):
		return fmt.Errorf("the draft has no references: %w", err)
	case errors.Is(err, domain.ErrReferenceNotFound):
		return fmt.Errorf("no such reference on this draft: %w", err)
	case errors.Is(err, domain.ErrGenerationFailed):
		return fmt.Errorf("the model could not produce an outline, try again later: %w", err)
	case errors.Is(err, domain.ErrRetrievalUnavailable):
		return fmt.Errorf("the chunk corpus is unavailable: %w", err)
	default:
		return err
	}
}
