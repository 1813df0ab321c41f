package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent login-flow failures.
// Network-stage failures carry typed details; match them with errors.Is.
var (
	// ErrConfiguration indicates a required configuration field is missing or invalid.
	ErrConfiguration = errors.New("configuration error")

	// ErrProviderIDRequired indicates a call did not name a provider.
	ErrProviderIDRequired = &ConfigError{Field: "providerId", Reason: "is required"}

	// ErrProviderNotInitialized indicates the provider id has no registered configuration.
	ErrProviderNotInitialized = errors.New("provider not initialized")

	// ErrDiscoveryFailed indicates OIDC metadata could not be fetched or parsed.
	ErrDiscoveryFailed = errors.New("discovery failed")

	// ErrFlowAlreadyPending indicates a login is already awaiting its callback for the provider.
	ErrFlowAlreadyPending = errors.New("login already in progress")

	// ErrNoPendingFlow indicates a callback did not match any pending login.
	ErrNoPendingFlow = errors.New("no pending login for callback")

	// ErrStateMismatch indicates the callback state nonce did not match the pending login.
	// Treated as a possible CSRF or replay attempt.
	ErrStateMismatch = errors.New("state mismatch")

	// ErrUserCancelled indicates the user backed out of the login surface.
	ErrUserCancelled = errors.New("user cancelled login")

	// ErrLoginSurface indicates the browser or webview failed before the provider redirected back.
	ErrLoginSurface = errors.New("login surface failed")

	// ErrProviderError indicates the identity provider returned an error parameter.
	ErrProviderError = errors.New("identity provider error")

	// ErrMissingCallbackData indicates a callback carried neither a code nor an access token.
	ErrMissingCallbackData = errors.New("callback has no code or access token")

	// ErrExchangeFailed indicates the authorization code exchange failed.
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrRefreshFailed indicates the refresh token exchange failed.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrResourceFetchFailed indicates the post-login resource request failed.
	// Never fatal to a login; logged only.
	ErrResourceFetchFailed = errors.New("resource fetch failed")

	// ErrPKCEGeneration indicates the random source failed while creating PKCE artifacts.
	ErrPKCEGeneration = errors.New("pkce generation failed")

	// ErrNotLoggedIn indicates no stored tokens exist for the provider.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNoRefreshToken indicates a refresh was requested without any refresh token available.
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// ConfigError reports a missing or invalid configuration field.
type ConfigError struct {
	ProviderID string
	Field      string
	Reason     string
}

func (e *ConfigError) Error() string {
	if e.ProviderID != "" {
		return fmt.Sprintf("configuration error: provider %s: %s %s", e.ProviderID, e.Field, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// DiscoveryError reports a failure resolving OIDC metadata.
type DiscoveryError struct {
	ProviderID string
	URL        string
	Message    string
	Err        error
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("discovery failed for %s (%s): %s: %v", e.ProviderID, e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("discovery failed for %s (%s): %s", e.ProviderID, e.URL, e.Message)
}

// Is reports whether target is ErrDiscoveryFailed.
func (e *DiscoveryError) Is(target error) bool {
	return target == ErrDiscoveryFailed
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// ProviderError carries the error and error_description returned by an identity provider.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("identity provider error: %s", e.Code)
	}
	return fmt.Sprintf("identity provider error: %s - %s", e.Code, e.Description)
}

// Is reports whether target is ErrProviderError.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderError
}

// TokenEndpointError reports a failed token endpoint call.
// Kind is ErrExchangeFailed or ErrRefreshFailed. Body holds the raw response for diagnostics.
type TokenEndpointError struct {
	Kind       error
	StatusCode int
	Body       string
	Err        error
}

func (e *TokenEndpointError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%v: status %d: %v: %s", e.Kind, e.StatusCode, e.Err, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%v: status %d: %s", e.Kind, e.StatusCode, e.Body)
	}
}

// Is reports whether target is the error kind.
func (e *TokenEndpointError) Is(target error) bool {
	return target == e.Kind
}

func (e *TokenEndpointError) Unwrap() error {
	return e.Err
}
