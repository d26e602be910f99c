package driven

import "github.com/custodia-labs/prism/internal/core/domain"

// AIConfigValidator checks that provider settings reach a live service.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider.
	// Returns nil when the provider is not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the LLM provider.
	// Returns nil when the provider is not configured.
	ValidateLLM(config *domain.LLMSettings) error
}
