// Package llm holds helpers shared by the LLM provider adapters.
package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// maxErrorBody caps how much of an error response is quoted.
const maxErrorBody = 512

// StatusError maps a non-2xx provider response to a domain error.
//
// 429 is ErrRateLimited. Other 4xx responses except 408 are
// ErrModelRejected, since repeating the request cannot succeed.
// Everything else is returned as a plain, retryable error.
func StatusError(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrRateLimited, status, msg)
	case status == http.StatusRequestTimeout:
		return fmt.Errorf("%s error (status %d): %s", provider, status, msg)
	case status >= 400 && status < 500:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrModelRejected, status, msg)
	default:
		return fmt.Errorf("%s error (status %d): %s", provider, status, msg)
	}
}
