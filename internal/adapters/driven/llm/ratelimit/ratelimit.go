// Package ratelimit provides a client-side rate limiting decorator for LLM services.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultCooldown is how long calls pause after the provider reports a rate limit.
const DefaultCooldown = 10 * time.Second

// LLMService wraps another LLMService with a token bucket.
// When the provider answers with domain.ErrRateLimited, later calls
// wait out a cooldown before taking a token.
type LLMService struct {
	next     driven.LLMService
	limiter  *rate.Limiter
	cooldown time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// Wrap limits next to requestsPerMinute calls. A non-positive rate returns next unchanged.
func Wrap(next driven.LLMService, requestsPerMinute int) driven.LLMService {
	if requestsPerMinute <= 0 || next == nil {
		return next
	}
	return New(next, rate.Limit(float64(requestsPerMinute)/60), 1, DefaultCooldown)
}

// New creates a rate-limited service with an explicit limit, burst and cooldown.
func New(next driven.LLMService, limit rate.Limit, burst int, cooldown time.Duration) *LLMService {
	return &LLMService{
		next:     next,
		limiter:  rate.NewLimiter(limit, burst),
		cooldown: cooldown,
	}
}

// Generate waits for capacity, then delegates.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	out, err := s.next.Generate(ctx, prompt, opts)
	if errors.Is(err, domain.ErrRateLimited) {
		s.mu.Lock()
		s.retryAt = time.Now().Add(s.cooldown)
		s.mu.Unlock()
	}
	return out, err
}

// wait honours any cooldown, then the token bucket.
func (s *LLMService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return s.limiter.Wait(ctx)
}

// ModelName returns the wrapped model name.
func (s *LLMService) ModelName() string {
	return s.next.ModelName()
}

// Ping delegates without consuming a token.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *LLMService) Close() error {
	return s.next.Close()
}
