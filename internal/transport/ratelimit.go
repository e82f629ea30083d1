package transport

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles requests to LNURL service hosts with one token
// bucket per host.
type RateLimiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

// NewRateLimiter creates a limiter allowing perSecond requests per host
// with bursts of up to burst. A burst below one is raised to one.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		hosts: make(map[string]*rate.Limiter),
		limit: rate.Limit(perSecond),
		burst: burst,
	}
}

// DefaultRateLimiter allows 2 requests per second per host with a burst of 4.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(2, 4)
}

// Wait blocks until host may be contacted and reports how long the request
// was held back. It fails without waiting when ctx would expire first.
func (r *RateLimiter) Wait(ctx context.Context, host string) (time.Duration, error) {
	start := time.Now()
	if err := r.forHost(HostKey(host)).Wait(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Hosts returns the number of hosts that currently have a bucket.
func (r *RateLimiter) Hosts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hosts)
}

func (r *RateLimiter) forHost(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.hosts[key]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.hosts[key] = l
	}
	return l
}

// HostKey folds a URL host to the form buckets are keyed on: lower case,
// without port, brackets or a trailing root dot. "Pay.Example.com:443" and
// "pay.example.com." share a bucket.
func HostKey(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if name, _, err := net.SplitHostPort(h); err == nil {
		h = name
	}
	h = strings.TrimSuffix(strings.TrimPrefix(h, "["), "]")
	return strings.TrimSuffix(h, ".")
}
