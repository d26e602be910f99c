package driving

import (
	"context"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// OutlineService generates document outlines.
type OutlineService interface {
	// Generate produces an outline for the request topic.
	// Returns domain.ErrGenerationFailed when the model was attempted and failed.
	// Returns the default outline when no model is configured.
	Generate(ctx context.Context, req domain.OutlineRequest) (*domain.OutlineResult, error)

	// Templates returns the preset outline catalog.
	Templates() []domain.OutlineTemplate
}
