// Package apiclient issues chat-completion requests against an
// OpenAI-compatible service and classifies every failure into a small
// taxonomy. Dispatch is asynchronous and cancellable; a request never blocks
// the caller and never retries.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/james2doyle/sublime-simpleai/pkg/settings"
)

// Client sends chat-completion requests. The zero value is usable; a nil
// HTTPClient falls back to a cached default with a generous timeout, since
// per-request deadlines come from the dispatch context.
type Client struct {
	HTTPClient *http.Client
	Logger     *slog.Logger // Debug request/response logging; nil disables.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// --- request/response types ---

type apiRequest struct {
	Model           string       `json:"model"`
	Messages        []apiMessage `json:"messages"`
	ReasoningEffort string       `json:"reasoning_effort,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
}

type apiChoice struct {
	Message apiRespMessage `json:"message"`
}

type apiRespMessage struct {
	Content string `json:"content"`
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	c.clientOnce.Do(func() {
		c.defaultClient = &http.Client{Timeout: 10 * time.Minute}
	})

	return c.defaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// endpoint builds the request URL from the effective configuration. Hostnames
// already carrying a scheme are used verbatim; anything else gets https.
func endpoint(cfg settings.EffectiveConfig) string {
	host := cfg.Hostname
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host + cfg.APIPath
}

// complete performs one synchronous chat-completion round trip and returns
// the first choice's message content. Every failure maps onto the package's
// error taxonomy.
func (c *Client) complete(ctx context.Context, cfg settings.EffectiveConfig, prompt string) (string, error) {
	payload := apiRequest{
		Model:    cfg.Model,
		Messages: []apiMessage{{Role: "user", Content: prompt}},
	}
	if cfg.ReasoningEffort != settings.EffortAuto {
		payload.ReasoningEffort = string(cfg.ReasoningEffort)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &ServiceError{Reason: fmt.Sprintf("marshal payload: %v", err)}
	}

	url := endpoint(cfg)
	c.logger().Debug("api request", "url", url, "model", cfg.Model, "effort", cfg.ReasoningEffort)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &ServiceError{Reason: fmt.Sprintf("build request: %v", err)}
	}

	req.Header.Set("Authorization", "Bearer "+cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req) //nolint:gosec // URL is built from resolved settings, not request input
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return "", ErrCancelled
		}
		return "", &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger().Debug("api response", "status", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &AuthError{Status: resp.StatusCode, Body: readBody(resp.Body)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &RateLimitError{
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       readBody(resp.Body),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", &ServiceError{Status: resp.StatusCode, Reason: readBody(resp.Body)}
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// Cancellation mid-body fails the decode; keep the classification
		// consistent with a cancellation before the headers arrived.
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			return "", ErrCancelled
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", &NetworkError{Err: err}
		}
		return "", &ServiceError{Reason: fmt.Sprintf("decode response: %v", err)}
	}

	if len(parsed.Choices) == 0 {
		return "", &ServiceError{Reason: "empty choices in response"}
	}

	return parsed.Choices[0].Message.Content, nil
}

// readBody drains a response body for error reporting, capped so a huge error
// page cannot balloon a notification.
func readBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	return strings.TrimSpace(string(data))
}
