// Package httpclient builds the outbound HTTP client used for discovery,
// token, and resource requests.
package httpclient

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds the outbound client settings.
type Config struct {
	// Timeout bounds each request end to end.
	Timeout time.Duration
	// RequestsPerSecond is the sustained per-host rate.
	RequestsPerSecond float64
	// BurstSize is the per-host burst.
	BurstSize int
	// UserAgent is sent on every request that does not set its own.
	UserAgent string
}

// DefaultConfig is used for zero fields.
var DefaultConfig = Config{
	Timeout:           30 * time.Second,
	RequestsPerSecond: 5,
	BurstSize:         10,
	UserAgent:         "sociallogin",
}

// New returns an http.Client whose transport rate-limits per host.
func New(cfg Config) *http.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig.Timeout
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: NewTransport(http.DefaultTransport, cfg),
	}
}

// hostLimiter is a token bucket plus a backoff deadline set by 429 responses.
type hostLimiter struct {
	limiter *rate.Limiter
	retryAt time.Time
}

// Transport is an http.RoundTripper that throttles requests per host and
// backs off after a 429. It never retries a request itself.
type Transport struct {
	base  http.RoundTripper
	cfg   Config
	mu    sync.Mutex
	hosts map[string]*hostLimiter
	now   func() time.Time
}

// NewTransport wraps base. A nil base uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, cfg Config) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig.RequestsPerSecond
	}
	if cfg.BurstSize < 1 {
		cfg.BurstSize = DefaultConfig.BurstSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig.UserAgent
	}
	return &Transport{
		base:  base,
		cfg:   cfg,
		hosts: make(map[string]*hostLimiter),
		now:   time.Now,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	host := t.host(req.URL.Host)

	t.mu.Lock()
	retryAt := host.retryAt
	t.mu.Unlock()

	if wait := retryAt.Sub(t.now()); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err := host.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(ctx)
		req.Header.Set("User-Agent", t.cfg.UserAgent)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		t.recordRateLimit(host, resp.Header.Get("Retry-After"))
	}
	return resp, nil
}

func (t *Transport) host(name string) *hostLimiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.hosts[name]
	if !ok {
		h = &hostLimiter{limiter: rate.NewLimiter(rate.Limit(t.cfg.RequestsPerSecond), t.cfg.BurstSize)}
		t.hosts[name] = h
	}
	return h
}

// recordRateLimit sets the backoff deadline from a Retry-After header in seconds.
func (t *Transport) recordRateLimit(h *hostLimiter, retryAfter string) {
	seconds, err := strconv.Atoi(retryAfter)
	if err != nil || seconds <= 0 {
		seconds = 60
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	h.retryAt = t.now().Add(time.Duration(seconds) * time.Second)
}
