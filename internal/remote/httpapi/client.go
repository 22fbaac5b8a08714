// Package httpapi mirrors mutations to the remote REST backend.
package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"finwallet/internal/core"
	"finwallet/internal/middleware/ratelimit"
	"finwallet/internal/middleware/trace"
	"finwallet/internal/remote"
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to /api/{entity}s on the backend. Requests carry the bearer
// token of the signed-in user session.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ remote.Mirror = (*Client)(nil)

// Option tunes the transport stack built by New.
type Option func(*options)

type options struct {
	base  http.RoundTripper
	limit *ratelimit.Config
}

// WithTransport replaces http.DefaultTransport at the bottom of the stack.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithRateLimit throttles outgoing requests.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(o *options) { o.limit = &cfg }
}

// New builds a client for baseURL. A nil token source sends unauthenticated
// requests. Every request is traced; the bearer token is added above the
// tracer and the limiter.
func New(ctx context.Context, baseURL string, ts oauth2.TokenSource, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", baseURL)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var rt http.RoundTripper = trace.NewTransport(o.base)
	if o.limit != nil {
		rt = ratelimit.NewTransport(rt, *o.limit)
	}

	hc := &http.Client{Transport: rt}
	if ts != nil {
		hc = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, hc), ts)
	}
	hc.Timeout = timeout
	return &Client{base: u, http: hc}, nil
}

// StaticToken is a token source for a pre-issued access token.
func StaticToken(token string) oauth2.TokenSource {
	if token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

func (c *Client) path(entity core.SyncEntity, key string) string {
	p := "/api/" + string(entity) + "s"
	if key != "" {
		p += "/" + url.PathEscape(key)
	}
	return p
}

// Mirror maps create to POST, update to PUT and delete to DELETE. Deleting
// something the backend no longer has counts as done.
func (c *Client) Mirror(ctx context.Context, op core.SyncOperation) error {
	var method, path string
	switch op.Action {
	case core.ActionCreate:
		method, path = http.MethodPost, c.path(op.Entity, "")
	case core.ActionUpdate:
		method, path = http.MethodPut, c.path(op.Entity, op.Key)
	case core.ActionDelete:
		method, path = http.MethodDelete, c.path(op.Entity, op.Key)
	default:
		return fmt.Errorf("unknown action %q", op.Action)
	}

	var body io.Reader
	if len(op.Payload) > 0 && op.Action != core.ActionDelete {
		body = bytes.NewReader(op.Payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", op.ID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if op.Action == core.ActionDelete && resp.StatusCode == http.StatusNotFound {
		slog.DebugContext(ctx, "Remote record already gone", "path", path)
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
}
