package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

// TokenSet represents the tokens stored for a provider.
type TokenSet struct {
	// AccessToken is the bearer token for API access.
	AccessToken string
	// TokenType is typically "bearer".
	TokenType string
	// ExpiresAt is when the access token expires.
	ExpiresAt time.Time
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string
	// IDToken is the OIDC identity token, when the provider issued one.
	IDToken string
	// Scopes are the granted scopes.
	Scopes []string
}

// IsExpired returns true if the access token has expired at now.
// A zero expiry never expires.
func (t *TokenSet) IsExpired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt)
}

// HasAccessToken returns true if an access token is present.
func (t *TokenSet) HasAccessToken() bool {
	return t != nil && t.AccessToken != ""
}

// HasRefreshToken returns true if a refresh token is available.
func (t *TokenSet) HasRefreshToken() bool {
	return t != nil && t.RefreshToken != ""
}

// HasScope returns true if the scope was granted.
func (t *TokenSet) HasScope(scope string) bool {
	return slices.Contains(t.Scopes, scope)
}

// SplitScope splits a space-delimited scope string, dropping empty entries.
func SplitScope(scope string) []string {
	var out []string
	for _, p := range strings.Split(scope, " ") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// maxLifetimeSeconds is the longest lifetime a time.Duration can hold.
const maxLifetimeSeconds = math.MaxInt64 / int64(time.Second)

// ExpiresAfter returns now plus a lifetime in seconds, clamped so that
// very large expires_in values cannot wrap into the past.
func ExpiresAfter(now time.Time, seconds int64) time.Time {
	switch {
	case seconds > maxLifetimeSeconds:
		seconds = maxLifetimeSeconds
	case seconds < -maxLifetimeSeconds:
		seconds = -maxLifetimeSeconds
	}
	return now.Add(time.Duration(seconds) * time.Second)
}
