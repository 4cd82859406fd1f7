// Package provider holds the shared outbound HTTP machinery used by every
// generation backend adapter: a pooled transport, per-provider circuit
// breaking, and optional request throttling.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/artboardhq/artboard/internal/domain"
)

// maxErrorBody bounds the upstream error excerpt carried in errors.
const maxErrorBody = 2048

// sharedTransport is reused by every adapter so connection pools are shared
// per host rather than per provider instance.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// Client issues JSON requests to one backend. Server-side failures trip a
// circuit breaker; client-side rejections (4xx) pass through without
// counting against it.
type Client struct {
	name    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	limiter *rate.Limiter
	header  http.Header
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRateLimit throttles outbound requests to rpm requests per minute.
func WithRateLimit(rpm float64) ClientOption {
	return func(c *Client) {
		if rpm > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rpm/60), 1)
		}
	}
}

// WithHeader sets a header on every request, typically authorization.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithTimeout overrides the per-request timeout. Generation submissions can
// run long; polling status checks should stay short.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient builds a client for the named backend.
func NewClient(name string, opts ...ClientOption) *Client {
	c := &Client{
		name: name,
		http: &http.Client{
			Transport: sharedTransport,
			Timeout:   2 * time.Minute,
		},
		header: make(http.Header),
	}
	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DoJSON sends one JSON request and decodes the JSON response into out.
// A nil in sends no body; a nil out discards the response body.
//
// Error mapping: network errors and 5xx statuses count as breaker failures
// and return UpstreamError; 4xx statuses return UpstreamError with the body
// excerpt but leave the breaker alone.
func (c *Client) DoJSON(ctx context.Context, method, url string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.name, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.name, err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			defer resp.Body.Close()
			excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &domain.UpstreamError{
				Provider: c.name,
				Status:   resp.StatusCode,
				Message:  string(excerpt),
			}
		}
		return resp, nil
	})
	if err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) {
			return ue
		}
		return &domain.UpstreamError{Provider: c.name, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.UpstreamError{
			Provider: c.name,
			Status:   resp.StatusCode,
			Message:  string(excerpt),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.UpstreamError{
			Provider: c.name,
			Message:  fmt.Sprintf("malformed response: %v", err),
		}
	}
	return nil
}

// Fetch downloads raw bytes from url, for media ingestion.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%s: build request: %w", c.name, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &domain.UpstreamError{Provider: c.name, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, "", &domain.UpstreamError{Provider: c.name, Status: resp.StatusCode, Message: "media fetch failed"}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &domain.UpstreamError{Provider: c.name, Message: err.Error()}
	}
	return data, resp.Header.Get("Content-Type"), nil
}
