package driving

import (
	"context"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

// Flow is a login that has been started and is awaiting its callback.
type Flow struct {
	// CorrelationID routes the callback event to this login.
	CorrelationID string
	// ProviderID is the provider this login belongs to.
	ProviderID string
	// AuthURL is the URL the login surface was asked to open.
	AuthURL string
	// RedirectURL is the effective redirect URL for this attempt.
	RedirectURL string

	result <-chan FlowOutcome
}

// FlowOutcome is the terminal result of a login flow.
type FlowOutcome struct {
	Result *domain.LoginResult
	Err    error
}

// NewFlow creates a flow handle that resolves when result receives.
func NewFlow(correlationID, providerID, authURL, redirectURL string, result <-chan FlowOutcome) *Flow {
	return &Flow{
		CorrelationID: correlationID,
		ProviderID:    providerID,
		AuthURL:       authURL,
		RedirectURL:   redirectURL,
		result:        result,
	}
}

// Wait blocks until the flow resolves or ctx is done.
func (f *Flow) Wait(ctx context.Context) (*domain.LoginResult, error) {
	select {
	case out := <-f.result:
		return out.Result, out.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OAuthService coordinates provider logins, refreshes, and logouts.
type OAuthService interface {
	// Initialize registers provider configurations, replacing any with the same ID.
	Initialize(ctx context.Context, configs []domain.ProviderConfig) error

	// Providers returns the registered provider IDs, sorted.
	Providers() []string

	// Begin starts a login, opens the login surface, and returns without waiting.
	Begin(ctx context.Context, req domain.LoginRequest) (*Flow, error)

	// Login starts a login and waits for its callback to resolve it.
	// Cancelling ctx abandons the pending login.
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error)

	// Abandon drops a flow still awaiting its callback and reports whether it did.
	Abandon(flow *Flow) bool

	// HandleCallback correlates a callback event with its pending login and completes it.
	HandleCallback(ctx context.Context, event domain.CallbackEvent) error

	// Deliver queues a callback event for the Run loop.
	Deliver(event domain.CallbackEvent) error

	// Run consumes delivered callback events until ctx is done.
	Run(ctx context.Context) error

	// Refresh exchanges the refresh token for a new token set.
	Refresh(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResult, error)

	// Logout deletes stored tokens and best-effort opens the end-session URL.
	Logout(ctx context.Context, providerID string) error

	// Status reports the stored token state for a provider.
	Status(ctx context.Context, providerID string) (*domain.AuthStatus, error)

	// Tokens returns the stored token set for a provider.
	Tokens(ctx context.Context, providerID string) (*domain.TokenSet, error)
}
