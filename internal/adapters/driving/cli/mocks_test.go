package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/ingest"
)

// setupTestServices installs mock services and returns a cleanup func
// restoring the previous ones.
func setupTestServices() func() {
	oldOutline := outlineService
	oldReference := referenceService
	oldRetrieval := retrievalService
	oldCorpus := corpusService
	oldSettings := settingsService
	oldPrompts := promptStore
	oldBootstrap := bootstrap

	bootstrap = nil
	SetServices(&Services{
		Outline:    &mockOutlineService{},
		References: &mockReferenceService{},
		Retrieval:  &mockRetrievalService{},
		Corpus:     &mockCorpusService{},
		Settings:   &mockSettingsService{settings: domain.DefaultAppSettings()},
	})

	return func() {
		outlineService = oldOutline
		referenceService = oldReference
		retrievalService = oldRetrieval
		corpusService = oldCorpus
		settingsService = oldSettings
		promptStore = oldPrompts
		bootstrap = oldBootstrap
	}
}

// execute runs the root command with args and returns its combined output.
// Flag variables are reset first since cobra keeps them between runs.
func execute(args ...string) (string, error) {
	return executeWithInput("", args...)
}

// executeWithInput runs the root command reading stdin from input.
func executeWithInput(input string, args ...string) (string, error) {
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags() {
	outlineDocs = nil
	outlineMaxDepth = 3
	outlineJSON = false
	referenceType = string(domain.ReferenceCitation)
	referenceJSON = false
	corpusDocs = nil
	corpusUser = ""
	corpusTopK = domain.DefaultTopK
	corpusThreshold = domain.DefaultSimilarityThreshold
	corpusStructural = false
	corpusJSON = false
	ingestDocID = ""
	ingestChunkSize = ingest.DefaultChunkSize
	ingestOverlap = ingest.DefaultChunkOverlap
	verbose = false
	configDir = ""
	_ = mcpServeCmd.Flags().Set("port", "0")
}

var errMock = errors.New("mock failure")

type mockOutlineService struct {
	lastReq domain.OutlineRequest
	err     error
}

func (m *mockOutlineService) Generate(_ context.Context, req domain.OutlineRequest) (*domain.OutlineResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.OutlineResult{
		Topic: req.Topic,
		Outline: []domain.OutlineItem{
			{Title: "Introduction", Depth: 1},
			{Title: "Background", Depth: 2},
		},
		SourcesUsed: len(req.DocumentIDs),
	}, nil
}

func (m *mockOutlineService) Templates() []domain.OutlineTemplate {
	return []domain.OutlineTemplate{
		{
			ID:          "essay",
			Name:        "Essay",
			Description: "Classic essay",
			Outline:     []domain.OutlineItem{{Title: "Thesis", Depth: 1}},
		},
	}
}

type mockReferenceService struct {
	lastAttach domain.AttachRequest
	refs       []domain.EnrichedReference
	err        error
}

func (m *mockReferenceService) Attach(_ context.Context, req domain.AttachRequest) (*domain.Reference, error) {
	m.lastAttach = req
	if m.err != nil {
		return nil, m.err
	}
	typ := req.Type
	if typ == "" {
		typ = domain.ReferenceCitation
	}
	return &domain.Reference{
		ID:             "ref-1",
		DraftID:        req.DraftID,
		ChunkID:        req.ChunkID,
		ParagraphIndex: req.ParagraphIndex,
		Type:           typ,
		CreatedAt:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (m *mockReferenceService) List(_ context.Context, _ string) ([]domain.EnrichedReference, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.refs == nil {
		return []domain.EnrichedReference{}, nil
	}
	return m.refs, nil
}

func (m *mockReferenceService) Remove(_ context.Context, draftID, _ string) error {
	if m.err != nil {
		return m.err
	}
	if draftID == "missing" {
		return domain.ErrDraftNotFound
	}
	return nil
}

type mockRetrievalService struct {
	lastQuery      domain.RetrievalQuery
	structuralDocs []string
	structural     bool
	err            error
}

func (m *mockRetrievalService) Search(_ context.Context, query domain.RetrievalQuery) ([]domain.Chunk, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Chunk{
		{
			ID:         "chunk-1",
			DocumentID: "handbook",
			Content:    "Install the package",
			Metadata:   domain.ChunkMetadata{Source: "handbook.pdf (p.3)"},
			Similarity: 0.91,
		},
	}, nil
}

func (m *mockRetrievalService) SearchStructural(_ context.Context, topic string, docIDs []string, topK int) ([]domain.Chunk, error) {
	m.structural = true
	m.structuralDocs = docIDs
	m.lastQuery = domain.RetrievalQuery{QueryText: topic, TopK: topK}
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Chunk{
		{
			ID:         "h1",
			DocumentID: "handbook",
			Content:    "Installation",
			Metadata:   domain.ChunkMetadata{HeaderLevel: domain.HeaderLevel(1)},
			Similarity: 0.8,
		},
	}, nil
}

type mockCorpusService struct {
	imported []domain.ChunkRecord
	removed  []string
	err      error
}

func (m *mockCorpusService) Import(_ context.Context, records []domain.ChunkRecord) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.imported = records
	return len(records), nil
}

func (m *mockCorpusService) Remove(_ context.Context, ids []string) error {
	m.removed = ids
	return m.err
}

func (m *mockCorpusService) Count(_ context.Context) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return 42, nil
}

type mockSettingsService struct {
	settings    domain.AppSettings
	setCalls    map[string]string
	backend     domain.ReferenceBackend
	llmProvider domain.AIProvider
	llmKey      string
	validateErr error
	unknown     []string
	err         error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	if m.setCalls == nil {
		m.setCalls = make(map[string]string)
	}
	m.setCalls[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llmProvider = provider
	m.llmKey = apiKey
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return m.err
}

func (m *mockSettingsService) SetReferenceBackend(backend domain.ReferenceBackend) error {
	m.backend = backend
	return m.err
}

func (m *mockSettingsService) UnknownKeys() []string {
	return m.unknown
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.validateErr
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.validateErr
}
