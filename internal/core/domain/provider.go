package domain

import (
	"maps"
	"strings"
)

// ResponseType is the OAuth2 response_type requested at the authorization endpoint.
type ResponseType string

const (
	// ResponseTypeCode is the authorization code flow.
	ResponseTypeCode ResponseType = "code"
	// ResponseTypeToken is the implicit flow; tokens arrive in the redirect fragment.
	ResponseTypeToken ResponseType = "token"
)

// ProviderVariant selects provider-specific defaults and quirks.
type ProviderVariant string

const (
	// VariantGeneric is any standards-compliant OAuth2/OIDC provider.
	VariantGeneric ProviderVariant = "generic"
	// VariantTwitter is X (formerly Twitter) OAuth 2.0 with PKCE.
	VariantTwitter ProviderVariant = "twitter"
)

// VariantCapabilities describes what a provider variant fills in or supports.
type VariantCapabilities struct {
	// AuthorizationEndpoint is used when the config sets neither endpoint nor issuer.
	AuthorizationEndpoint string
	// TokenEndpoint is used when the config sets no token endpoint.
	TokenEndpoint string
	// ResourceURL is the default profile endpoint fetched after login.
	ResourceURL string
	// Scope is the default scope string.
	Scope string
	// RequiresPKCE forces PKCE on regardless of config.
	RequiresPKCE bool
	// ForceLoginParam is the query parameter that forces re-authentication, if supported.
	ForceLoginParam string
}

var variantCapabilities = map[ProviderVariant]VariantCapabilities{
	VariantGeneric: {},
	VariantTwitter: {
		AuthorizationEndpoint: "https://x.com/i/oauth2/authorize",
		TokenEndpoint:         "https://api.x.com/2/oauth2/token",
		ResourceURL:           "https://api.x.com/2/users/me",
		Scope:                 "tweet.read users.read offline.access",
		RequiresPKCE:          true,
		ForceLoginParam:       "force_login",
	},
}

// Capabilities returns the capability table entry for the variant.
// Unknown variants behave as generic.
func (v ProviderVariant) Capabilities() VariantCapabilities {
	if c, ok := variantCapabilities[v]; ok {
		return c
	}
	return VariantCapabilities{}
}

// IsValid returns true if the variant is known.
func (v ProviderVariant) IsValid() bool {
	_, ok := variantCapabilities[v]
	return ok
}

// ProviderConfig holds the client settings for one identity provider.
// It is replaced wholesale when discovery resolves missing endpoints and
// is otherwise immutable once registered.
type ProviderConfig struct {
	// ID is the caller-chosen provider identifier (e.g., "google", "corp-sso").
	ID string
	// Variant selects provider-specific defaults.
	Variant ProviderVariant
	// ClientID is the OAuth client (application) id.
	ClientID string
	// IssuerURL is the OIDC issuer used for discovery.
	IssuerURL string
	// AuthorizationEndpoint overrides the discovered authorization endpoint.
	AuthorizationEndpoint string
	// TokenEndpoint overrides the discovered token endpoint.
	TokenEndpoint string
	// EndSessionEndpoint overrides the discovered logout endpoint.
	EndSessionEndpoint string
	// RedirectURL is where the provider sends the browser after authorization.
	RedirectURL string
	// PostLogoutRedirectURL is sent on logout; defaults to RedirectURL.
	PostLogoutRedirectURL string
	// ResourceURL is fetched with the new access token after login or refresh.
	ResourceURL string
	// ResponseType is "code" (default) or "token".
	ResponseType ResponseType
	// PKCEEnabled adds code_challenge/code_verifier to the code flow.
	PKCEEnabled bool
	// Scope is the default space-separated scope string.
	Scope string

	AdditionalAuthParams      map[string]string
	AdditionalTokenParams     map[string]string
	AdditionalResourceHeaders map[string]string
	AdditionalLogoutParams    map[string]string

	// LoginHint is sent as login_hint unless the login call overrides it.
	LoginHint string
	// Prompt is sent as prompt unless the login call overrides it.
	Prompt string
	// Logging raises this provider's flow logs from debug to info.
	Logging bool
}

// WithDefaults returns a copy with variant defaults and the code response type filled in.
// Explicit fields are never overwritten.
func (c ProviderConfig) WithDefaults() ProviderConfig {
	out := c.Clone()
	if out.Variant == "" {
		out.Variant = VariantGeneric
	}
	if out.ResponseType == "" {
		out.ResponseType = ResponseTypeCode
	}

	caps := out.Variant.Capabilities()
	if out.AuthorizationEndpoint == "" && out.IssuerURL == "" {
		out.AuthorizationEndpoint = caps.AuthorizationEndpoint
	}
	if out.TokenEndpoint == "" && out.IssuerURL == "" {
		out.TokenEndpoint = caps.TokenEndpoint
	}
	if out.ResourceURL == "" {
		out.ResourceURL = caps.ResourceURL
	}
	if out.Scope == "" {
		out.Scope = caps.Scope
	}
	if caps.RequiresPKCE {
		out.PKCEEnabled = true
	}
	return out
}

// Validate checks the invariants every registered config must hold.
func (c ProviderConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrProviderIDRequired
	}
	if c.ClientID == "" {
		return &ConfigError{ProviderID: c.ID, Field: "clientId", Reason: "is required"}
	}
	if c.RedirectURL == "" {
		return &ConfigError{ProviderID: c.ID, Field: "redirectUrl", Reason: "is required"}
	}
	if c.AuthorizationEndpoint == "" && c.IssuerURL == "" {
		return &ConfigError{
			ProviderID: c.ID,
			Field:      "authorizationBaseUrl",
			Reason:     "or issuerUrl is required",
		}
	}
	switch c.ResponseType {
	case "", ResponseTypeCode, ResponseTypeToken:
	default:
		return &ConfigError{ProviderID: c.ID, Field: "responseType", Reason: "must be code or token"}
	}
	if c.Variant != "" && !c.Variant.IsValid() {
		return &ConfigError{ProviderID: c.ID, Field: "variant", Reason: "is not a known provider variant"}
	}
	return nil
}

// IsCodeFlow returns true if the provider uses the authorization code flow.
func (c ProviderConfig) IsCodeFlow() bool {
	return c.ResponseType == "" || c.ResponseType == ResponseTypeCode
}

// NeedsDiscovery returns true if endpoints required by the flow are still unknown.
func (c ProviderConfig) NeedsDiscovery() bool {
	if c.AuthorizationEndpoint != "" && c.TokenEndpoint != "" {
		return false
	}
	if !c.IsCodeFlow() && c.AuthorizationEndpoint != "" {
		return false
	}
	return true
}

// Clone returns a deep copy so callers cannot mutate a registered config.
func (c ProviderConfig) Clone() ProviderConfig {
	out := c
	out.AdditionalAuthParams = maps.Clone(c.AdditionalAuthParams)
	out.AdditionalTokenParams = maps.Clone(c.AdditionalTokenParams)
	out.AdditionalResourceHeaders = maps.Clone(c.AdditionalResourceHeaders)
	out.AdditionalLogoutParams = maps.Clone(c.AdditionalLogoutParams)
	return out
}
