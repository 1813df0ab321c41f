package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewMetrics(reg)
	require.NoError(t, err)

	// Registering twice on the same registry is a duplicate.
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.login("google", nil)
		m.tokenRequest("google", "refresh_token", nil)
		m.discoveryFetch("google", errors.New("boom"))
	})
}

func TestMetrics_Counts(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)

	m.login("google", nil)
	m.login("google", domain.ErrUserCancelled)
	m.login("google", &domain.ProviderError{Code: "access_denied"})
	m.tokenRequest("google", "authorization_code", nil)
	m.tokenRequest("google", "authorization_code", errors.New("boom"))
	m.discoveryFetch("google", nil)

	assert.InDelta(t, 1, testutil.ToFloat64(m.logins.WithLabelValues("google", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.logins.WithLabelValues("google", "cancelled")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.logins.WithLabelValues("google", "provider_error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tokenRequests.WithLabelValues("google", "authorization_code", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.discoveryFetches.WithLabelValues("google", "success")), 0)
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{domain.ErrUserCancelled, "cancelled"},
		{context.Canceled, "abandoned"},
		{context.DeadlineExceeded, "abandoned"},
		{domain.ErrStateMismatch, "state_mismatch"},
		{&domain.ProviderError{Code: "x"}, "provider_error"},
		{&domain.TokenEndpointError{Kind: domain.ErrExchangeFailed, StatusCode: 400}, "failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outcomeOf(tt.err))
	}
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	return testutil.ToFloat64(vec.WithLabelValues(labels...))
}
