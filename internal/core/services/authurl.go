package services

import (
	"fmt"
	"net/url"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

// BuildAuthURL assembles the authorization request URL for a pending flow.
//
// Parameters are applied in order, later ones overriding earlier ones:
// provider-level additional parameters, per-call additional parameters,
// then login_hint and prompt (per-call value first, provider default
// otherwise). The protocol parameters are set last so the URL always
// matches the pending flow. Query parameters already present on the
// endpoint are preserved unless overridden.
func BuildAuthURL(
	cfg domain.ProviderConfig,
	pending domain.PendingAuthState,
	codeChallenge string,
	req domain.LoginRequest,
) (string, error) {
	if cfg.AuthorizationEndpoint == "" {
		return "", &domain.ConfigError{ProviderID: cfg.ID, Field: "authorizationBaseUrl", Reason: "is required"}
	}
	u, err := url.Parse(cfg.AuthorizationEndpoint)
	if err != nil {
		return "", &domain.ConfigError{
			ProviderID: cfg.ID,
			Field:      "authorizationBaseUrl",
			Reason:     fmt.Sprintf("is not a valid URL: %v", err),
		}
	}

	q := u.Query()
	for k, v := range cfg.AdditionalAuthParams {
		q.Set(k, v)
	}
	for k, v := range req.AdditionalParams {
		q.Set(k, v)
	}

	if hint := firstNonEmpty(req.LoginHint, cfg.LoginHint); hint != "" {
		q.Set("login_hint", hint)
	}
	if prompt := firstNonEmpty(req.Prompt, cfg.Prompt); prompt != "" {
		q.Set("prompt", prompt)
	}
	if req.ForceLogin {
		if param := cfg.Variant.Capabilities().ForceLoginParam; param != "" {
			q.Set(param, "true")
		}
	}

	q.Set("response_type", string(pending.ResponseType))
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", pending.RedirectURL)
	q.Set("state", pending.State)
	if pending.Scope != "" {
		q.Set("scope", pending.Scope)
	}
	q.Del("code_challenge")
	q.Del("code_challenge_method")
	if pending.PKCE && codeChallenge != "" {
		q.Set("code_challenge", codeChallenge)
		q.Set("code_challenge_method", "S256")
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
