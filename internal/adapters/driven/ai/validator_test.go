package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prism/internal/core/domain"
)

func TestNewConfigValidator(t *testing.T) {
	validator := NewConfigValidator()

	require.NotNil(t, validator)
	assert.Equal(t, pingTimeout, validator.timeout)
}

func TestConfigValidator_Unconfigured(t *testing.T) {
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateEmbedding(nil))
	assert.NoError(t, validator.ValidateEmbedding(&domain.EmbeddingSettings{Model: "m"}))
	assert.NoError(t, validator.ValidateLLM(nil))
	assert.NoError(t, validator.ValidateLLM(&domain.LLMSettings{Model: "m"}))
}

func TestConfigValidator_ValidateEmbedding(t *testing.T) {
	validator := NewConfigValidator()

	t.Run("reachable", func(t *testing.T) {
		srv := newOllamaServer(t, http.StatusOK)
		err := validator.ValidateEmbedding(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, Model: "nomic-embed-text", BaseURL: srv.URL,
		})
		assert.NoError(t, err)
	})

	t.Run("failing", func(t *testing.T) {
		srv := newOllamaServer(t, http.StatusInternalServerError)
		err := validator.ValidateEmbedding(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, Model: "nomic-embed-text", BaseURL: srv.URL,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding provider ollama")
	})

	t.Run("unsupported provider", func(t *testing.T) {
		err := validator.ValidateEmbedding(&domain.EmbeddingSettings{
			Provider: domain.AIProviderAnthropic, APIKey: "k",
		})
		assert.Error(t, err)
	})
}

func TestConfigValidator_ValidateLLM(t *testing.T) {
	validator := NewConfigValidator()

	t.Run("reachable", func(t *testing.T) {
		srv := newOllamaServer(t, http.StatusOK)
		err := validator.ValidateLLM(&domain.LLMSettings{
			Provider: domain.AIProviderOllama, Model: "llama3.2", BaseURL: srv.URL,
		})
		assert.NoError(t, err)
	})

	t.Run("failing", func(t *testing.T) {
		srv := newOllamaServer(t, http.StatusServiceUnavailable)
		err := validator.ValidateLLM(&domain.LLMSettings{
			Provider: domain.AIProviderOllama, Model: "llama3.2", BaseURL: srv.URL,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm provider ollama")
	})
}

func TestConfigValidator_Timeout(t *testing.T) {
	validator := &ConfigValidator{timeout: 50 * time.Millisecond}
	srv := newSlowServer(t, time.Second)

	err := validator.ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama, Model: "llama3.2", BaseURL: srv.URL,
	})

	assert.Error(t, err)
}

// newSlowServer delays every response until delay passes or the client gives up.
func newSlowServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}
