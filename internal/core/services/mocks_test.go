package services

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
)

// --- Mock implementations ---

// llmResponse is one scripted Generate outcome.
type llmResponse struct {
	text string
	err  error
}

// mockLLM implements driven.LLMService by replaying scripted responses.
// The last response repeats once the script is exhausted.
type mockLLM struct {
	mu        sync.Mutex
	responses []llmResponse
	calls     int
	prompts   []string
	opts      driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	m.opts = opts
	idx := m.calls
	m.calls++
	if len(m.responses) == 0 {
		return "", nil
	}
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx].text, m.responses[idx].err
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockSearcher implements driven.ChunkSearcher for testing.
type mockSearcher struct {
	chunks    []domain.Chunk
	err       error
	lastQuery domain.RetrievalQuery
	calls     int
}

func (m *mockSearcher) Search(_ context.Context, query domain.RetrievalQuery) ([]domain.Chunk, error) {
	m.lastQuery = query
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks, nil
}

// mockRetrieval implements driving.RetrievalService for testing.
type mockRetrieval struct {
	chunks []domain.Chunk
	err    error
	topic  string
	docIDs []string
	topK   int
	calls  int
}

func (m *mockRetrieval) Search(_ context.Context, _ domain.RetrievalQuery) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockRetrieval) SearchStructural(_ context.Context, topic string, docIDs []string, topK int) ([]domain.Chunk, error) {
	m.calls++
	m.topic = topic
	m.docIDs = docIDs
	m.topK = topK
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks, nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockContentSource implements driven.ChunkContentSource for testing.
type mockContentSource struct {
	mu      sync.Mutex
	content map[string]domain.ChunkContent
	err     error
	fetches map[string]int
}

func (m *mockContentSource) FetchContent(_ context.Context, chunkID string) (domain.ChunkContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetches == nil {
		m.fetches = make(map[string]int)
	}
	m.fetches[chunkID]++
	if m.err != nil {
		return domain.ChunkContent{}, m.err
	}
	c, ok := m.content[chunkID]
	if !ok {
		return domain.ChunkContent{}, domain.ErrNotFound
	}
	return c, nil
}

// mockConfigStore implements driven.ConfigStore in memory.
type mockConfigStore struct {
	mu     sync.RWMutex
	data   map[string]any
	setErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	v, _ := m.Get(key)
	n, _ := v.(int)
	return n
}

func (m *mockConfigStore) GetBool(key string) bool {
	v, _ := m.Get(key)
	b, _ := v.(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	v, _ := m.Get(key)
	s, _ := v.([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockConfigStore) Save() error { return m.setErr }
func (m *mockConfigStore) Load() error { return nil }
func (m *mockConfigStore) Path() string { return "mock://config" }

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	lastLLM      *domain.LLMSettings
}

func (m *mockAIValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(config *domain.LLMSettings) error {
	m.lastLLM = config
	return m.llmErr
}
