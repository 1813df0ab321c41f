package services

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

func parseAuthURL(t *testing.T, raw string) (*url.URL, url.Values) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u, u.Query()
}

func codePending() domain.PendingAuthState {
	return domain.PendingAuthState{
		ProviderID:   "google",
		State:        "state-123",
		CodeVerifier: "verifier",
		RedirectURL:  "http://127.0.0.1:8085/callback",
		Scope:        "openid email",
		ResponseType: domain.ResponseTypeCode,
		PKCE:         true,
	}
}

func TestBuildAuthURL_CodeFlowWithPKCE(t *testing.T) {
	cfg := testProviderConfig("google").WithDefaults()

	raw, err := BuildAuthURL(cfg, codePending(), "challenge-abc", domain.LoginRequest{})
	require.NoError(t, err)

	u, q := parseAuthURL(t, raw)
	assert.Equal(t, "idp.example.com", u.Host)
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-google", q.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:8085/callback", q.Get("redirect_uri"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "openid email", q.Get("scope"))
	assert.Equal(t, "challenge-abc", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.False(t, q.Has("code_verifier"))
}

func TestBuildAuthURL_WithoutPKCE(t *testing.T) {
	cfg := testProviderConfig("google").WithDefaults()
	pending := codePending()
	pending.PKCE = false
	pending.Scope = ""

	raw, err := BuildAuthURL(cfg, pending, "", domain.LoginRequest{})
	require.NoError(t, err)

	_, q := parseAuthURL(t, raw)
	assert.False(t, q.Has("code_challenge"))
	assert.False(t, q.Has("code_challenge_method"))
	assert.False(t, q.Has("scope"))
}

func TestBuildAuthURL_ImplicitFlow(t *testing.T) {
	cfg := testProviderConfig("google")
	cfg.ResponseType = domain.ResponseTypeToken
	pending := codePending()
	pending.ResponseType = domain.ResponseTypeToken
	pending.PKCE = false

	raw, err := BuildAuthURL(cfg.WithDefaults(), pending, "", domain.LoginRequest{})
	require.NoError(t, err)

	_, q := parseAuthURL(t, raw)
	assert.Equal(t, "token", q.Get("response_type"))
	assert.False(t, q.Has("code_challenge"))
}

func TestBuildAuthURL_ParameterPrecedence(t *testing.T) {
	cfg := testProviderConfig("google")
	cfg.AuthorizationEndpoint = "https://idp.example.com/authorize?tenant=acme&access_type=online"
	cfg.AdditionalAuthParams = map[string]string{"access_type": "offline", "hd": "example.com"}
	cfg.LoginHint = "default@example.com"
	cfg.Prompt = "consent"

	req := domain.LoginRequest{
		AdditionalParams: map[string]string{"hd": "other.com", "nonce": "n-1"},
		LoginHint:        "user@example.com",
	}

	raw, err := BuildAuthURL(cfg.WithDefaults(), codePending(), "c", req)
	require.NoError(t, err)

	_, q := parseAuthURL(t, raw)
	assert.Equal(t, "acme", q.Get("tenant"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "other.com", q.Get("hd"))
	assert.Equal(t, "n-1", q.Get("nonce"))
	assert.Equal(t, "user@example.com", q.Get("login_hint"))
	assert.Equal(t, "consent", q.Get("prompt"))
}

func TestBuildAuthURL_ExtraParamsCannotOverrideProtocolFields(t *testing.T) {
	cfg := testProviderConfig("google")
	cfg.AuthorizationEndpoint = "https://idp.example.com/authorize?code_challenge_method=plain"
	cfg.AdditionalAuthParams = map[string]string{
		"redirect_uri": "https://evil.example.com/",
		"client_id":    "someone-else",
	}
	req := domain.LoginRequest{
		AdditionalParams: map[string]string{
			"state":          "other",
			"code_challenge": "x",
			"response_type":  "token",
			"audience":       "api",
		},
	}

	raw, err := BuildAuthURL(cfg.WithDefaults(), codePending(), "challenge-abc", req)
	require.NoError(t, err)

	_, q := parseAuthURL(t, raw)
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "http://127.0.0.1:8085/callback", q.Get("redirect_uri"))
	assert.Equal(t, "client-google", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "challenge-abc", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "api", q.Get("audience"))
}

func TestBuildAuthURL_WithoutPKCEDropsInjectedChallenge(t *testing.T) {
	cfg := testProviderConfig("google")
	pending := codePending()
	pending.PKCE = false
	req := domain.LoginRequest{AdditionalParams: map[string]string{"code_challenge": "x"}}

	raw, err := BuildAuthURL(cfg.WithDefaults(), pending, "", req)
	require.NoError(t, err)

	_, q := parseAuthURL(t, raw)
	assert.False(t, q.Has("code_challenge"))
}

func TestBuildAuthURL_ForceLogin(t *testing.T) {
	twitter := domain.ProviderConfig{
		ID:          "x",
		Variant:     domain.VariantTwitter,
		ClientID:    "abc",
		RedirectURL: "myapp://oauth",
	}.WithDefaults()

	raw, err := BuildAuthURL(twitter, codePending(), "c", domain.LoginRequest{ForceLogin: true})
	require.NoError(t, err)
	u, q := parseAuthURL(t, raw)
	assert.Equal(t, "x.com", u.Host)
	assert.Equal(t, "true", q.Get("force_login"))

	// Generic providers have no force-login parameter.
	raw, err = BuildAuthURL(testProviderConfig("google").WithDefaults(), codePending(), "c",
		domain.LoginRequest{ForceLogin: true})
	require.NoError(t, err)
	_, q = parseAuthURL(t, raw)
	assert.False(t, q.Has("force_login"))
}

func TestBuildAuthURL_InvalidEndpoint(t *testing.T) {
	cfg := testProviderConfig("google")
	cfg.AuthorizationEndpoint = "://bad"

	_, err := BuildAuthURL(cfg, codePending(), "", domain.LoginRequest{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	cfg.AuthorizationEndpoint = ""
	_, err = BuildAuthURL(cfg, codePending(), "", domain.LoginRequest{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
