package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FlowState is the login state of one provider.
type FlowState string

const (
	// FlowIdle means no login is pending.
	FlowIdle FlowState = "IDLE"
	// FlowAwaitingCallback means the browser surface is open and no callback arrived yet.
	FlowAwaitingCallback FlowState = "AWAITING_CALLBACK"
	// FlowExchanging means a callback was accepted and tokens are being obtained.
	FlowExchanging FlowState = "EXCHANGING"
)

// PendingAuthState is the record of a login awaiting its redirect callback.
// The code verifier lives only here and is dropped with the record.
type PendingAuthState struct {
	// CorrelationID routes the callback back to this login.
	CorrelationID string
	ProviderID    string
	// State is the random nonce sent as the state parameter.
	State        string
	CodeVerifier string
	// RedirectURL and Scope are the effective values used for this attempt.
	RedirectURL  string
	Scope        string
	ResponseType ResponseType
	PKCE         bool
	CreatedAt    time.Time
}

// LoginRequest holds the per-call login options.
type LoginRequest struct {
	ProviderID string
	// Scope overrides the provider's default scope string.
	Scope string
	// Scopes overrides Scope when non-empty; joined with spaces.
	Scopes []string
	// RedirectURL overrides the provider redirect URL for this attempt.
	RedirectURL string
	// State overrides the generated state nonce.
	State string
	// CodeVerifier overrides the generated PKCE verifier.
	CodeVerifier string
	// AdditionalParams are merged into the authorization URL; they win over provider params.
	AdditionalParams map[string]string
	LoginHint        string
	Prompt           string
	// ForceLogin asks variants that support it to force re-authentication.
	ForceLogin bool
}

// EffectiveScope returns the scope string this login should request.
func (r LoginRequest) EffectiveScope(providerDefault string) string {
	if len(r.Scopes) > 0 {
		return strings.Join(r.Scopes, " ")
	}
	if r.Scope != "" {
		return r.Scope
	}
	return providerDefault
}

// LoginResult is what a successful login or refresh resolves with.
type LoginResult struct {
	ProviderID string
	Tokens     TokenSet
	// Resource is the resource endpoint payload; nil when not configured or the fetch failed.
	Resource json.RawMessage
}

// RefreshRequest holds the per-call refresh options.
type RefreshRequest struct {
	ProviderID string
	// RefreshToken overrides the stored refresh token.
	RefreshToken     string
	AdditionalParams map[string]string
}

// AuthStatus summarises the stored tokens for a provider.
type AuthStatus struct {
	ProviderID      string
	LoggedIn        bool
	Expired         bool
	HasRefreshToken bool
	ExpiresAt       time.Time
	Scopes          []string
	// Subject and Email are read, unverified, from the ID token for display.
	Subject string
	Email   string
}

// CallbackStatus is how the login surface finished.
type CallbackStatus string

const (
	// CallbackSuccess means the surface reached the redirect URL.
	CallbackSuccess CallbackStatus = "success"
	// CallbackCancelled means the user backed out.
	CallbackCancelled CallbackStatus = "cancelled"
	// CallbackError means the surface itself failed.
	CallbackError CallbackStatus = "error"
)

// CallbackEvent is delivered when the login surface returns.
type CallbackEvent struct {
	CorrelationID string
	Status        CallbackStatus
	// Params holds redirect query and fragment parameters.
	Params map[string]string
	// Message describes a surface error.
	Message string
}

// Param returns a callback parameter or "".
func (e CallbackEvent) Param(key string) string {
	return e.Params[key]
}

// CallbackFromRedirect builds a success event from the final redirect URL.
// Fragment parameters (implicit flow) override query parameters of the same name.
func CallbackFromRedirect(correlationID, redirectURL string) (CallbackEvent, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return CallbackEvent{}, fmt.Errorf("parse redirect url: %w", err)
	}

	params := make(map[string]string)
	for k, v := range u.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	if u.Fragment != "" {
		fragment, err := url.ParseQuery(u.Fragment)
		if err != nil {
			return CallbackEvent{}, fmt.Errorf("parse redirect fragment: %w", err)
		}
		for k, v := range fragment {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
	}

	return CallbackEvent{
		CorrelationID: correlationID,
		Status:        CallbackSuccess,
		Params:        params,
	}, nil
}
