// Package ratelimit throttles outbound requests to the remote backend so a
// large outbox replay does not flood it.
package ratelimit

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 5,
		Burst:             10,
	}
}

// Transport waits for a token before forwarding each request.
type Transport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

// NewTransport wraps next. A non-positive rate falls back to the defaults.
func NewTransport(next http.RoundTripper, config Config) *Transport {
	if config.RequestsPerSecond <= 0 {
		config = DefaultConfig()
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.next.RoundTrip(req)
}

