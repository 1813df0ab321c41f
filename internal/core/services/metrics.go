package services

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

// Outcome labels.
const (
	outcomeSuccess   = "success"
	outcomeCancelled = "cancelled"
	outcomeAbandoned = "abandoned"
	outcomeMismatch  = "state_mismatch"
	outcomeProvider  = "provider_error"
	outcomeFailed    = "failed"
)

// Metrics counts login, token, and discovery outcomes per provider.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	logins           *prometheus.CounterVec
	tokenRequests    *prometheus.CounterVec
	discoveryFetches *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves the collectors unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sociallogin_logins_total",
			Help: "Completed login flows by provider and outcome",
		}, []string{"provider", "outcome"}),
		tokenRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sociallogin_token_requests_total",
			Help: "Token endpoint calls by provider, grant type, and outcome",
		}, []string{"provider", "grant", "outcome"}),
		discoveryFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sociallogin_discovery_fetches_total",
			Help: "OIDC discovery document fetches by provider and outcome",
		}, []string{"provider", "outcome"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.logins, m.tokenRequests, m.discoveryFetches} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) login(provider string, err error) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(provider, outcomeOf(err)).Inc()
}

func (m *Metrics) tokenRequest(provider, grant string, err error) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailed
	}
	m.tokenRequests.WithLabelValues(provider, grant, outcome).Inc()
}

func (m *Metrics) discoveryFetch(provider string, err error) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailed
	}
	m.discoveryFetches.WithLabelValues(provider, outcome).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, domain.ErrUserCancelled):
		return outcomeCancelled
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeAbandoned
	case errors.Is(err, domain.ErrStateMismatch):
		return outcomeMismatch
	case errors.Is(err, domain.ErrProviderError):
		return outcomeProvider
	default:
		return outcomeFailed
	}
}
