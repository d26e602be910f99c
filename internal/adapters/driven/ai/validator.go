package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by building a short-lived
// client and pinging it. Unconfigured providers pass.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator that waits up to pingTimeout per check.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// ValidateEmbedding pings the configured embedding provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	svc, err := CreateEmbeddingService(config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("embedding provider %s: %w", config.Provider, err)
	}
	return nil
}

// ValidateLLM pings the configured LLM provider.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	svc, err := CreateLLMService(ctx, config)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("llm provider %s: %w", config.Provider, err)
	}
	return nil
}
