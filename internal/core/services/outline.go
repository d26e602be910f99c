package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
	"github.com/custodia-labs/prism/internal/core/ports/driving"
	"github.com/custodia-labs/prism/internal/logger"
)

// Ensure OutlineService implements the interface.
var _ driving.OutlineService = (*OutlineService)(nil)

var outlineLog = logger.For("outline")

// Model parameters for outline generation.
const (
	outlineTemperature = 0.7
	outlineMaxTokens   = 2000
)

// OutlineService generates outlines with retrieval-augmented prompts.
//
// Both the retriever and the model are optional. Without a retriever the
// prompt carries no reference material. Without a model the service
// returns the default outline and never attempts generation.
type OutlineService struct {
	retriever driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
	retry     RetryPolicy
}

// NewOutlineService creates an outline service.
// Any collaborator may be nil.
func NewOutlineService(
	retriever driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
) *OutlineService {
	s := &OutlineService{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
	}
	s.SetRetryPolicy(DefaultRetryPolicy(domain.DefaultMaxRetries))
	return s
}

// SetRetryPolicy replaces the model retry policy.
// Each retry is logged as a warning.
func (s *OutlineService) SetRetryPolicy(p RetryPolicy) {
	next := p.OnRetry
	p.OnRetry = func(attempt int, err error) {
		outlineLog.Warn("model call attempt %d/%d failed: %v", attempt, p.MaxAttempts, err)
		if next != nil {
			next(attempt, err)
		}
	}
	s.retry = p
}

// Generate produces an outline for the request topic.
func (s *OutlineService) Generate(ctx context.Context, req domain.OutlineRequest) (*domain.OutlineResult, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, fmt.Errorf("outline topic is empty: %w", domain.ErrInvalidInput)
	}
	maxDepth := req.MaxDepth
	if maxDepth == 0 {
		maxDepth = domain.DefaultOutlineDepth
	}
	if maxDepth < domain.MinOutlineDepth || maxDepth > domain.MaxOutlineDepth {
		return nil, fmt.Errorf("max depth %d outside %d..%d: %w",
			maxDepth, domain.MinOutlineDepth, domain.MaxOutlineDepth, domain.ErrInvalidInput)
	}

	logger.Section("Outline Generation")

	if s.llm == nil {
		outlineLog.Info("no model configured, returning default outline")
		return &domain.OutlineResult{
			Outline: DefaultOutline(topic, maxDepth),
			Topic:   topic,
		}, nil
	}

	refContext, sourcesUsed := s.buildContext(ctx, topic, req.DocumentIDs)

	prompt, err := renderOutlinePrompt(s.prompts, outlinePromptData{
		Topic:    topic,
		Context:  refContext,
		MaxDepth: maxDepth,
	})
	if err != nil {
		return nil, err
	}
	outlineLog.Debug("prompt is %d bytes, model %s", len(prompt), s.llm.ModelName())

	var lastRaw string
	items, err := Retry(ctx, s.retry, func(ctx context.Context) ([]domain.OutlineItem, error) {
		out, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   outlineMaxTokens,
			Temperature: outlineTemperature,
		})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(out) == "" {
			return nil, domain.ErrEmptyCompletion
		}
		lastRaw = out
		parsed := domain.FilterDepth(ParseOutline(out), maxDepth)
		if len(parsed) == 0 {
			return nil, domain.ErrMalformedCompletion
		}
		return parsed, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMalformedCompletion):
		// The final attempt answered, but without usable items.
		outlineLog.Warn("no usable outline items in %d-byte model output, returning default outline", len(lastRaw))
		items = DefaultOutline(topic, maxDepth)
	default:
		outlineLog.Warn("generation failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	outlineLog.Info("generated %d outline items from %d sources", len(items), sourcesUsed)
	return &domain.OutlineResult{
		Outline:     items,
		Topic:       topic,
		SourcesUsed: sourcesUsed,
	}, nil
}

// buildContext retrieves heading chunks for the topic and formats them.
// Retrieval failures degrade to the empty-context sentinel.
func (s *OutlineService) buildContext(ctx context.Context, topic string, docIDs []string) (string, int) {
	if len(docIDs) == 0 || s.retriever == nil {
		return NoReferenceMaterial, 0
	}

	chunks, err := s.retriever.SearchStructural(ctx, topic, docIDs, domain.StructuralTopK)
	if err != nil {
		outlineLog.Warn("retrieval failed, generating without reference material: %v", err)
		return NoReferenceMaterial, 0
	}

	outlineLog.Debug("retrieved %d structural chunks", len(chunks))
	return FormatChunks(chunks, DefaultMaxContextChunks, DefaultMaxChunkChars),
		distinctDocuments(chunks, DefaultMaxContextChunks)
}

// Templates returns the preset outline catalog.
func (s *OutlineService) Templates() []domain.OutlineTemplate {
	catalog, err := OutlineTemplates()
	if err != nil {
		outlineLog.Error("outline template catalog: %v", err)
		return []domain.OutlineTemplate{}
	}
	return catalog
}
