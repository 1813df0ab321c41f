package domain

// ProviderMetadata is the subset of an OIDC discovery document the login flow uses.
type ProviderMetadata struct {
	Issuer                string
	AuthorizationEndpoint string
	TokenEndpoint         string
	EndSessionEndpoint    string
}

// CodeExchange is an authorization_code grant request.
type CodeExchange struct {
	TokenURL    string
	ClientID    string
	Code        string
	RedirectURL string
	// CodeVerifier is sent only when non-empty.
	CodeVerifier string
	// Params are extra form fields. They never replace the grant fields above.
	Params map[string]string
}

// RefreshGrant is a refresh_token grant request.
type RefreshGrant struct {
	TokenURL     string
	ClientID     string
	RefreshToken string
	// Params are extra form fields. They never replace the grant fields above.
	Params map[string]string
}

// ResourceRequest is an authenticated GET against the provider's resource endpoint.
type ResourceRequest struct {
	URL         string
	AccessToken string
	Headers     map[string]string
}
