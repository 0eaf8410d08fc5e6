// Package apiclient is the HTTP client for the tutoring backend.
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
	"time"

	"github.com/ashureev/tutor-chat/internal/domain"
)

// maxErrorBodySize bounds how much of a failed response is read for its detail.
const maxErrorBodySize = 64 << 10

// genericFailureDetail is used when a failed response carries no detail.
const genericFailureDetail = "Network error"

var (
	// ErrRequestFailed matches every failed chat request.
	ErrRequestFailed = errors.New("request failed")
	// ErrHealthCheckFailed matches every failed health probe.
	ErrHealthCheckFailed = errors.New("health check failed")
)

// RequestError describes a failed chat request. It matches ErrRequestFailed.
type RequestError struct {
	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int
	// Detail is the backend's detail message or a generic fallback.
	Detail string
	// Cause is the transport or decode error, if any.
	Cause error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString(ErrRequestFailed.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Client talks to the /api endpoints of the tutoring backend.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	healthTimeout time.Duration
	logger        *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHealthTimeout bounds each health probe.
func WithHealthTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.healthTimeout = d
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the backend rooted at baseURL. The default
// http.Client has no timeout: a chat turn waits on the transport's own limits
// or on the caller's context.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		healthTimeout: 5 * time.Second,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat posts one chat turn. On a 2xx response it returns the decoded body;
// otherwise it returns a *RequestError.
func (c *Client) Chat(ctx context.Context, message, studentID string) (*domain.ChatResponse, error) {
	body, err := json.Marshal(domain.ChatRequest{Message: message, StudentID: studentID})
	if err != nil {
		return nil, &RequestError{Detail: "encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Detail: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Detail: genericFailureDetail, Cause: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close chat response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(resp.Body),
		}
	}

	var out domain.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &RequestError{StatusCode: resp.StatusCode, Detail: "malformed response body", Cause: err}
	}

	c.logger.Debug("Chat turn completed",
		"status", resp.StatusCode,
		"agent", out.Agent,
		"subject", out.Subject,
		"tools_used", out.ToolsUsed,
		"elapsed", time.Since(start),
	)
	return &out, nil
}

// Health probes GET /api/health. Any transport, status or decode failure is
// returned wrapped in ErrHealthCheckFailed. A decoded body is returned even
// when its status is not "healthy"; callers decide what that means.
func (c *Client) Health(ctx context.Context) (*domain.HealthResponse, error) {
	if c.healthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.healthTimeout)
		defer cancel()
	}

	var out domain.HealthResponse
	if err := c.getJSON(ctx, "/api/health", &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHealthCheckFailed, err)
	}
	return &out, nil
}

// AgentsStatus fetches GET /api/agents/status, keyed by agent name.
func (c *Client) AgentsStatus(ctx context.Context) (map[string]domain.AgentStatus, error) {
	out := make(map[string]domain.AgentStatus)
	if err := c.getJSON(ctx, "/api/agents/status", &out); err != nil {
		return nil, fmt.Errorf("agents status: %w", err)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body", "path", path, "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, errorDetail(resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetail extracts the "detail" field of a JSON error body, falling back
// to a generic message when the body is absent, not JSON, or has no detail.
func errorDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil || len(data) == 0 {
		return genericFailureDetail
	}
	var body domain.ErrorBody
	if err := json.Unmarshal(data, &body); err != nil || body.Detail == "" {
		return genericFailureDetail
	}
	return body.Detail
}
