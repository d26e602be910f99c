package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "gemini is valid", provider: AIProviderGemini, expected: true},
		{name: "empty is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown is invalid", provider: AIProvider("mistral"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "Google Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		expected bool
	}{
		{name: "empty", settings: LLMSettings{}, expected: false},
		{name: "ollama without key", settings: LLMSettings{Provider: AIProviderOllama}, expected: true},
		{name: "openai without key", settings: LLMSettings{Provider: AIProviderOpenAI}, expected: false},
		{name: "gemini with key", settings: LLMSettings{Provider: AIProviderGemini, APIKey: "k"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
}

func TestReferenceBackend_IsValid(t *testing.T) {
	assert.True(t, ReferenceBackendMemory.IsValid())
	assert.True(t, ReferenceBackendSQLite.IsValid())
	assert.True(t, ReferenceBackendRedis.IsValid())
	assert.False(t, ReferenceBackend("postgres").IsValid())
}

func TestDefaultAppSettings(t *testing.T) {
	settings := DefaultAppSettings()

	assert.False(t, settings.LLM.IsConfigured())
	assert.False(t, settings.Embedding.IsConfigured())
	assert.Equal(t, ReferenceBackendSQLite, settings.References.Backend)
	assert.Equal(t, DefaultMaxRetries, settings.Outline.MaxRetries)
}

func TestAllReferenceBackends(t *testing.T) {
	for _, b := range AllReferenceBackends() {
		assert.True(t, b.IsValid(), b.String())
	}
	assert.False(t, ReferenceBackend("postgres").IsValid())
}
