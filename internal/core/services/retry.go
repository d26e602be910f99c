package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// retryBaseDelay is the first backoff interval of DefaultRetryPolicy.
// Tests override this to avoid real sleeps.
var retryBaseDelay = 500 * time.Millisecond

// RetryPolicy bounds how a failing call is repeated.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration

	// Multiplier grows the delay after each failed attempt.
	Multiplier float64

	// MaxDelay caps a single wait. Zero means no cap.
	MaxDelay time.Duration

	// IsRetryable decides whether an error is worth another attempt.
	// Nil means IsRetryableModelError.
	IsRetryable func(error) bool

	// OnRetry is called before each wait with the failed attempt number.
	OnRetry func(attempt int, err error)
}

// DefaultRetryPolicy returns the policy used for model calls:
// maxRetries retries after the first attempt with exponential backoff.
func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return RetryPolicy{
		MaxAttempts: maxRetries + 1,
		BaseDelay:   retryBaseDelay,
		Multiplier:  2,
		MaxDelay:    8 * time.Second,
		IsRetryable: IsRetryableModelError,
	}
}

// IsRetryableModelError reports whether a model call may succeed if repeated.
// Transport errors, timeouts, rate limits, empty and malformed completions
// are retryable.
// Rejected requests and invalid input are not.
func IsRetryableModelError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrModelRejected) || errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	return true
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Retry calls fn until it succeeds, returns a non-retryable error, or the
// policy's attempts are exhausted. If ctx is done, Retry stops and returns
// ctx.Err() without further attempts.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.IsRetryable
	if retryable == nil {
		retryable = IsRetryableModelError
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		lastErr = err

		if !retryable(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
