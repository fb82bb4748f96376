// Package api is the single outbound gateway to the listing API.
//
// The client attaches the current access token to every request and turns
// every unsuccessful outcome into an *Error. It never touches the session or
// navigation itself; reacting to AuthorizationExpired is left to the caller.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/logging"
	"github.com/VinMeld/autopost/internal/session"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 10 << 20
)

// CredentialSource supplies the current session credentials.
type CredentialSource interface {
	Get(ctx context.Context) (session.Credentials, error)
}

// Response is a successful (2xx) answer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Client sends requests to the API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     CredentialSource
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a client for the API rooted at baseURL. tokens may be nil
// for unauthenticated use.
func NewClient(baseURL string, tokens CredentialSource, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		tokens: tokens,
		logger: logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send performs one request. body may be nil. It makes exactly one attempt.
func (c *Client) Send(ctx context.Context, method, path string, body Body) (*Response, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		var err error
		reader, contentType, err = body.encode()
		if err != nil {
			return nil, err
		}
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		creds, err := c.tokens.Get(ctx)
		if err != nil {
			c.logger.Warn("failed to read session, sending without token", zap.Error(err))
		} else if creds.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, &Error{Kind: NetworkFailure, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Error("failed to read response", zap.String("path", path), zap.Error(err))
		return nil, &Error{Kind: NetworkFailure, Err: err}
	}

	c.logger.Debug("HTTP request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Kind:    ServerRejected,
			Status:  resp.StatusCode,
			Message: serverMessage(data),
		}
		if resp.StatusCode == http.StatusUnauthorized {
			apiErr.Kind = AuthorizationExpired
		}
		c.logger.Warn("API returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("kind", apiErr.Kind.String()),
			zap.String("path", path),
		)
		return nil, apiErr
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func serverMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Message)
}
