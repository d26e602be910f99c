package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/logger"
)

var log = logger.For("llm")

// Client speaks JSON over HTTP to one provider API.
type Client struct {
	provider string
	baseURL  string
	header   http.Header
	http     *http.Client
}

// NewClient returns a client that prefixes every path with baseURL and
// sends header on every request.
func NewClient(provider, baseURL string, timeout time.Duration, header http.Header) *Client {
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		header:   header,
		http:     &http.Client{Timeout: timeout},
	}
}

// Timeout reports the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}

// BaseURL reports the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostJSON sends in as a JSON body to path and decodes a 200 response into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.provider, err)
	}

	body, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}

// Get issues a bodiless GET to path and discards a 200 response.
func (c *Client) Get(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodGet, path, http.NoBody)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: send request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", c.provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, StatusError(c.provider, resp.StatusCode, raw)
	}
	return raw, nil
}

// BodyError maps an error object carried in a 200 response to a domain error.
// kind is the provider's error type or code, matched case-insensitively.
func BodyError(provider, kind, message string) error {
	k := strings.ToLower(kind)
	switch {
	case strings.Contains(k, "rate_limit"), strings.Contains(k, "overloaded"):
		return fmt.Errorf("%s: %w: %s", provider, domain.ErrRateLimited, message)
	case strings.Contains(k, "invalid_request"),
		strings.Contains(k, "authentication"),
		strings.Contains(k, "permission"),
		strings.Contains(k, "not_found"):
		return fmt.Errorf("%s: %w: %s", provider, domain.ErrModelRejected, message)
	default:
		return fmt.Errorf("%s error: %s", provider, message)
	}
}

// Completion validates the text a provider returned.
// Blank text is ErrEmptyCompletion. A truncated answer is still returned
// since the outline parser keeps every complete item.
func Completion(provider, text string, truncated bool) (string, error) {
	if strings.TrimSpace(text) == "" {
		if truncated {
			return "", fmt.Errorf("%s: %w (hit token limit)", provider, domain.ErrEmptyCompletion)
		}
		return "", fmt.Errorf("%s: %w", provider, domain.ErrEmptyCompletion)
	}
	if truncated {
		log.Warn("%s completion hit the token limit after %d bytes", provider, len(text))
	}
	return text, nil
}
