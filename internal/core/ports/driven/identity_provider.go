package driven

import (
	"context"
	"encoding/json"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

// MetadataFetcher retrieves OIDC discovery metadata for an issuer.
type MetadataFetcher interface {
	// FetchMetadata GETs the issuer's well-known configuration.
	// Failures are returned as *domain.DiscoveryError.
	FetchMetadata(ctx context.Context, issuerURL string) (*domain.ProviderMetadata, error)
}

// TokenEndpoint performs token grants against a provider's token endpoint.
// Failures are returned as *domain.TokenEndpointError.
type TokenEndpoint interface {
	// ExchangeCode redeems an authorization code.
	ExchangeCode(ctx context.Context, req domain.CodeExchange) (*domain.TokenSet, error)

	// Refresh redeems a refresh token. A response without a refresh token
	// carries req.RefreshToken forward.
	Refresh(ctx context.Context, req domain.RefreshGrant) (*domain.TokenSet, error)
}

// ResourceFetcher GETs the post-login resource with the access token as a bearer credential.
type ResourceFetcher interface {
	FetchResource(ctx context.Context, req domain.ResourceRequest) (json.RawMessage, error)
}
