package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	client := New(Config{})

	assert.Equal(t, 30*time.Second, client.Timeout)
	transport, ok := client.Transport.(*Transport)
	require.True(t, ok)
	assert.Equal(t, DefaultConfig.UserAgent, transport.cfg.UserAgent)
	assert.Equal(t, DefaultConfig.BurstSize, transport.cfg.BurstSize)
}

func TestTransport_SetsUserAgent(t *testing.T) {
	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	client := New(Config{UserAgent: "sociallogin-test"})
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "sociallogin-test", got.Load())
}

func TestTransport_KeepsCallerUserAgent(t *testing.T) {
	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")

	resp, err := New(Config{}).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "custom", got.Load())
}

func TestTransport_BacksOffAfter429(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(Config{})
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), hits.Load())
}

func TestTransport_BackoffIsPerHost(t *testing.T) {
	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer limited.Close()
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ok.Close()

	client := New(Config{})
	resp, err := client.Get(limited.URL)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.Get(ok.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRecordRateLimit_DefaultBackoff(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	transport := NewTransport(nil, Config{})
	transport.now = func() time.Time { return now }

	u, _ := url.Parse("https://idp.example.com/token")
	h := transport.host(u.Host)

	transport.recordRateLimit(h, "")
	assert.Equal(t, now.Add(60*time.Second), h.retryAt)

	transport.recordRateLimit(h, "5")
	assert.Equal(t, now.Add(5*time.Second), h.retryAt)
}
