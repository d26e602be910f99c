package services

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
	"github.com/custodia-labs/prism/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMRateLimit     = "llm.requests_per_minute"
	keyRefBackend       = "references.backend"
	keyRefRedisAddr     = "references.redis_addr"
	keyRefRedisPassword = "references.redis_password"
	keyRefRedisDB       = "references.redis_db"
	keyCorpusPath       = "corpus.path"
	keyOutlineRetries   = "outline.max_retries"
)

// intKeys are settings stored as integers.
var intKeys = map[string]bool{
	keyLLMRateLimit:   true,
	keyRefRedisDB:     true,
	keyOutlineRetries: true,
}

// SettingKeys returns every key accepted by Set.
func SettingKeys() []string {
	return []string{
		keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey, keyLLMRateLimit,
		keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyRefBackend, keyRefRedisAddr, keyRefRedisPassword, keyRefRedisDB,
		keyCorpusPath, keyOutlineRetries,
	}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			RequestsPerMinute: s.getInt(keyLLMRateLimit, defaults.LLM.RequestsPerMinute),
		},
		References: domain.ReferenceSettings{
			Backend:       s.getBackend(defaults.References.Backend),
			RedisAddr:     s.getString(keyRefRedisAddr, defaults.References.RedisAddr),
			RedisPassword: s.configStore.GetString(keyRefRedisPassword),
			RedisDB:       s.configStore.GetInt(keyRefRedisDB),
		},
		Corpus: domain.CorpusSettings{
			Path: s.configStore.GetString(keyCorpusPath),
		},
		Outline: domain.OutlineSettings{
			MaxRetries: s.getRetries(defaults.Outline.MaxRetries),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMRateLimit, settings.LLM.RequestsPerMinute},
		{keyRefBackend, settings.References.Backend.String()},
		{keyRefRedisAddr, settings.References.RedisAddr},
		{keyRefRedisDB, settings.References.RedisDB},
		{keyCorpusPath, settings.Corpus.Path},
		{keyOutlineRetries, settings.Outline.MaxRetries},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when present so an empty form never clears them.
	secrets := map[string]string{
		keyEmbedAPIKey:      settings.Embedding.APIKey,
		keyLLMAPIKey:        settings.LLM.APIKey,
		keyRefRedisPassword: settings.References.RedisPassword,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// Set updates a single setting by its config key.
// Integer settings are parsed; enumerated settings are validated.
func (s *SettingsService) Set(key, value string) error {
	known := false
	for _, k := range SettingKeys() {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	switch key {
	case keyLLMProvider:
		if p := domain.AIProvider(value); !p.IsValid() {
			return fmt.Errorf("invalid LLM provider %q: %w", value, domain.ErrInvalidInput)
		}
	case keyEmbedProvider:
		if p := domain.AIProvider(value); !p.IsValid() {
			return fmt.Errorf("invalid embedding provider %q: %w", value, domain.ErrInvalidInput)
		}
	case keyRefBackend:
		if b := domain.ReferenceBackend(value); !b.IsValid() {
			return fmt.Errorf("invalid reference backend %q: %w", value, domain.ErrInvalidInput)
		}
	}

	if intKeys[key] {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("setting %s needs a non-negative integer, got %q: %w", key, value, domain.ErrInvalidInput)
		}
		return s.configStore.Set(key, n)
	}
	return s.configStore.Set(key, value)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetReferenceBackend selects the reference persistence backend.
func (s *SettingsService) SetReferenceBackend(backend domain.ReferenceBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid reference backend: %s", backend)
	}
	return s.configStore.Set(keyRefBackend, backend.String())
}

// UnknownKeys returns stored keys that no setting reads, usually typos.
func (s *SettingsService) UnknownKeys() []string {
	known := make(map[string]bool)
	for _, k := range SettingKeys() {
		known[k] = true
	}

	var unknown []string
	for _, k := range s.configStore.Keys() {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	return unknown
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getRetries distinguishes an explicit zero from an absent key.
func (s *SettingsService) getRetries(defaultVal int) int {
	if _, exists := s.configStore.Get(keyOutlineRetries); !exists {
		return defaultVal
	}
	if n := s.configStore.GetInt(keyOutlineRetries); n >= 0 {
		return n
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.ReferenceBackend) domain.ReferenceBackend {
	val := s.configStore.GetString(keyRefBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.ReferenceBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
