package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zitadel/oidc/v2/pkg/oidc"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

// DiscoveryURL returns the well-known metadata URL for an issuer.
// Trailing slashes on the issuer are ignored.
func DiscoveryURL(issuer string) string {
	return strings.TrimRight(issuer, "/") + oidc.DiscoveryEndpoint
}

// FetchMetadata GETs and decodes the issuer's OIDC discovery document.
func (c *Client) FetchMetadata(ctx context.Context, issuerURL string) (*domain.ProviderMetadata, error) {
	endpoint := DiscoveryURL(issuerURL)
	fail := func(msg string, err error) error {
		return &domain.DiscoveryError{URL: endpoint, Message: msg, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fail("invalid issuer url", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail("request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fail("reading response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fail(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var doc oidc.DiscoveryConfiguration
	if err := json.Unmarshal(body, &doc); err == nil {
		return &domain.ProviderMetadata{
			Issuer:                doc.Issuer,
			AuthorizationEndpoint: doc.AuthorizationEndpoint,
			TokenEndpoint:         doc.TokenEndpoint,
			EndSessionEndpoint:    doc.EndSessionEndpoint,
		}, nil
	}

	// Only the endpoints are consumed; a malformed field elsewhere in the
	// document must not fail discovery.
	var endpoints discoveryEndpoints
	if err := json.Unmarshal(body, &endpoints); err != nil {
		return nil, fail("invalid JSON document", err)
	}
	return &domain.ProviderMetadata{
		Issuer:                endpoints.Issuer,
		AuthorizationEndpoint: endpoints.AuthorizationEndpoint,
		TokenEndpoint:         endpoints.TokenEndpoint,
		EndSessionEndpoint:    endpoints.EndSessionEndpoint,
	}, nil
}

// discoveryEndpoints is the subset of the discovery document that is read.
type discoveryEndpoints struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}
