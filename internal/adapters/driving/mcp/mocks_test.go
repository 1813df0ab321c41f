package mcp

import (
	"context"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driving"
)

// mockOAuthService is a mock implementation of driving.OAuthService.
type mockOAuthService struct {
	providers []string
	statuses  map[string]*domain.AuthStatus
	tokens    map[string]*domain.TokenSet

	refreshResult *domain.LoginResult
	refreshed     []domain.RefreshRequest
	loggedOut     []string
	err           error
}

var _ driving.OAuthService = (*mockOAuthService)(nil)

func (m *mockOAuthService) Initialize(context.Context, []domain.ProviderConfig) error { return m.err }

func (m *mockOAuthService) Providers() []string { return m.providers }

func (m *mockOAuthService) Begin(context.Context, domain.LoginRequest) (*driving.Flow, error) {
	return nil, m.err
}

func (m *mockOAuthService) Login(context.Context, domain.LoginRequest) (*domain.LoginResult, error) {
	return nil, m.err
}

func (m *mockOAuthService) Abandon(*driving.Flow) bool { return false }

func (m *mockOAuthService) HandleCallback(context.Context, domain.CallbackEvent) error { return m.err }

func (m *mockOAuthService) Deliver(domain.CallbackEvent) error { return m.err }

func (m *mockOAuthService) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockOAuthService) Refresh(_ context.Context, req domain.RefreshRequest) (*domain.LoginResult, error) {
	m.refreshed = append(m.refreshed, req)
	return m.refreshResult, m.err
}

func (m *mockOAuthService) Logout(_ context.Context, providerID string) error {
	m.loggedOut = append(m.loggedOut, providerID)
	return m.err
}

func (m *mockOAuthService) Status(_ context.Context, providerID string) (*domain.AuthStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.statuses[providerID]; ok {
		return s, nil
	}
	return &domain.AuthStatus{ProviderID: providerID, Expired: true}, nil
}

func (m *mockOAuthService) Tokens(_ context.Context, providerID string) (*domain.TokenSet, error) {
	if m.err != nil {
		return nil, m.err
	}
	if t, ok := m.tokens[providerID]; ok {
		return t, nil
	}
	return nil, domain.ErrNotLoggedIn
}
