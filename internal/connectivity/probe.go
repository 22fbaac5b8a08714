// Package connectivity answers "can the remote be reached right now" for the
// sync coordinator.
package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"finwallet/internal/cache"
	"finwallet/internal/log"
	"finwallet/internal/remote"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"amqp":  "5672",
	"amqps": "5671",
}

// DialFunc opens a connection; net.Dialer.DialContext fits.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Probe reports reachability by opening a TCP connection to the remote. The
// answer is cached for ttl so a burst of writes dials once.
type Probe struct {
	address string
	timeout time.Duration
	dial    DialFunc
	results *cache.LRUCache[bool]
}

var _ remote.Prober = (*Probe)(nil)

// NewProbe builds a probe for endpoint, which is either host:port or a URL
// whose scheme implies the port.
func NewProbe(endpoint string, timeout, ttl time.Duration) (*Probe, error) {
	addr, err := Address(endpoint)
	if err != nil {
		return nil, err
	}
	d := &net.Dialer{}
	return &Probe{
		address: addr,
		timeout: timeout,
		dial:    d.DialContext,
		results: cache.NewLRUCache[bool](1, ttl),
	}, nil
}

// Address resolves endpoint to host:port.
func Address(endpoint string) (string, error) {
	if !strings.Contains(endpoint, "://") {
		if host, port, err := net.SplitHostPort(endpoint); err == nil && host != "" && port != "" {
			return endpoint, nil
		}
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	port := u.Port()
	if port == "" {
		var ok bool
		if port, ok = defaultPorts[u.Scheme]; !ok {
			return "", fmt.Errorf("endpoint %q has no port", endpoint)
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

func (p *Probe) IsReachable(ctx context.Context) bool {
	if v, ok := p.results.Get(p.address); ok {
		return v
	}

	dialCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	conn, err := p.dial(dialCtx, "tcp", p.address)
	ok := err == nil
	if ok {
		conn.Close()
	} else {
		slog.DebugContext(ctx, "Remote unreachable",
			log.NewFields().WithComponent(log.ComponentConnectivity).WithError(err, log.ErrorTypeNetwork).ToSlice()...)
	}
	// A cancelled caller says nothing about the remote.
	if ctx.Err() == nil {
		p.results.Set(p.address, ok)
	}
	return ok
}

// Invalidate forgets the cached answer.
func (p *Probe) Invalidate() {
	p.results.Delete(p.address)
}

// Static is a prober with a fixed answer.
type Static bool

func (s Static) IsReachable(context.Context) bool { return bool(s) }
