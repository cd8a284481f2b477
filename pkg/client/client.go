package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// LoginPath is the navigation target handed to the session-expired hook
const LoginPath = "/login"

// TokenSource supplies and clears the bearer token used for requests
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
}

// StaticToken is a TokenSource holding a fixed token. Clearing it empties it.
type StaticToken struct {
	mu    sync.Mutex
	value string
}

// NewStaticToken creates a StaticToken
func NewStaticToken(token string) *StaticToken {
	return &StaticToken{value: token}
}

// Token returns the held token
func (s *StaticToken) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, nil
}

// ClearToken empties the held token
func (s *StaticToken) ClearToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = ""
	return nil
}

// Client is a Go SDK for the rounds backend API
type Client struct {
	baseURL        string
	tokens         TokenSource
	httpClient     *http.Client
	onSessionEnded func(redirect string)
	logger         *slog.Logger
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithSessionExpiredHook registers the callback invoked after a 401 clears
// the stored token. It receives the path the user should be sent to.
func WithSessionExpiredHook(fn func(redirect string)) Option {
	return func(c *Client) {
		c.onSessionEnded = fn
	}
}

// WithLogger sets the logger used for transport diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new rounds API client. tokens may be nil for
// unauthenticated use.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTokens returns a shallow copy of the client bound to another token
// source. The HTTP client and hooks are shared.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

// BaseURL returns the configured API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request performs an authenticated call and returns the normalized envelope.
// body is JSON-encoded for every method except GET.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any) (*Envelope, error) {
	var reader io.Reader
	if body != nil && method != http.MethodGet {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	respBody, err := c.doRequest(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}

	return newEnvelope(respBody)
}

// Health checks if the backend answers at all
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/", nil)
	var apiErr *APIError
	if err != nil && asAPIError(err, &apiErr) {
		// Any HTTP answer means the server is reachable.
		return nil
	}
	return err
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Method: method, Path: path, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.expireSession(ctx, method, path)
		return nil, ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// expireSession clears the token unconditionally and fires the hook
func (c *Client) expireSession(ctx context.Context, method, path string) {
	c.logger.Warn("session expired", "method", method, "path", path)

	if c.tokens != nil {
		if err := c.tokens.ClearToken(ctx); err != nil {
			c.logger.Error("failed to clear token", "error", err)
		}
	}

	if c.onSessionEnded != nil {
		c.onSessionEnded(LoginPath)
	}
}
