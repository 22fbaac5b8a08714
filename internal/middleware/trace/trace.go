// Package trace tags outbound mirror requests with a request id and logs
// their outcome.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// RequestIDHeader carries the id to the backend.
	RequestIDHeader = "X-Request-ID"
)

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64
	FailedRequests      int64
	AverageResponseTime int64 // in microseconds
}

// Transport is an http.RoundTripper that traces every request it forwards.
type Transport struct {
	next    http.RoundTripper
	metrics *Metrics
}

// NewTransport wraps next; a nil next uses http.DefaultTransport.
func NewTransport(next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{next: next, metrics: &Metrics{}}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	ctx := req.Context()
	requestID := GetRequestID(ctx)
	if requestID == "" {
		requestID = GenerateRequestID()
		ctx = WithRequestID(ctx, requestID)
	}
	// RoundTrippers must not mutate the caller's request.
	req = req.Clone(ctx)
	req.Header.Set(RequestIDHeader, requestID)

	atomic.AddInt64(&t.metrics.TotalRequests, 1)
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)
	atomic.StoreInt64(&t.metrics.AverageResponseTime, duration.Microseconds())

	if err != nil {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
		slog.WarnContext(ctx, "Remote request failed",
			"request_id", requestID,
			"method", req.Method,
			"path", req.URL.Path,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, err
	}

	logLevel := slog.LevelDebug
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		logLevel = slog.LevelWarn
	} else if resp.StatusCode >= 500 {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
		logLevel = slog.LevelError
	}
	slog.Log(ctx, logLevel, "Remote request completed",
		"request_id", requestID,
		"method", req.Method,
		"path", req.URL.Path,
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds())
	return resp, nil
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (t *Transport) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:       atomic.LoadInt64(&t.metrics.TotalRequests),
		FailedRequests:      atomic.LoadInt64(&t.metrics.FailedRequests),
		AverageResponseTime: atomic.LoadInt64(&t.metrics.AverageResponseTime),
	}
}
