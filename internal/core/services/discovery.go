package services

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driven"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/logger"
)

// DiscoveryResolver fills missing provider endpoints from the issuer's
// OIDC metadata. Results are written back to the registry so each provider
// is fetched at most once per registration; concurrent callers share one fetch.
type DiscoveryResolver struct {
	registry *ProviderRegistry
	fetcher  driven.MetadataFetcher
	metrics  *Metrics
	group    singleflight.Group
}

// NewDiscoveryResolver creates a DiscoveryResolver.
func NewDiscoveryResolver(registry *ProviderRegistry, fetcher driven.MetadataFetcher, metrics *Metrics) *DiscoveryResolver {
	return &DiscoveryResolver{registry: registry, fetcher: fetcher, metrics: metrics}
}

// Resolve returns the provider config with every endpoint the flow needs.
// Configs that already know their endpoints are returned unchanged without I/O.
func (d *DiscoveryResolver) Resolve(ctx context.Context, providerID string) (domain.ProviderConfig, error) {
	cfg, _, err := d.registry.lookup(providerID)
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	if !cfg.NeedsDiscovery() {
		return cfg, nil
	}

	// The shared fetch must outlive any single caller's cancellation.
	ch := d.group.DoChan(providerID, func() (any, error) {
		return d.resolve(context.WithoutCancel(ctx), providerID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.ProviderConfig{}, res.Err
		}
		return res.Val.(domain.ProviderConfig).Clone(), nil
	case <-ctx.Done():
		return domain.ProviderConfig{}, ctx.Err()
	}
}

func (d *DiscoveryResolver) resolve(ctx context.Context, providerID string) (domain.ProviderConfig, error) {
	// Re-read: an earlier flight may have finished between the caller's check and now.
	cfg, version, err := d.registry.lookup(providerID)
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	if !cfg.NeedsDiscovery() {
		return cfg, nil
	}
	if cfg.IssuerURL == "" {
		return domain.ProviderConfig{}, &domain.ConfigError{
			ProviderID: providerID,
			Field:      "accessTokenEndpoint",
			Reason:     "or issuerUrl is required for the code flow",
		}
	}

	meta, err := d.fetcher.FetchMetadata(ctx, cfg.IssuerURL)
	d.metrics.discoveryFetch(providerID, err)
	if err != nil {
		return domain.ProviderConfig{}, withProvider(err, providerID, cfg.IssuerURL)
	}

	merged := mergeDiscovered(cfg, meta)
	if merged.NeedsDiscovery() {
		return domain.ProviderConfig{}, &domain.DiscoveryError{
			ProviderID: providerID,
			URL:        cfg.IssuerURL,
			Message:    "document is missing authorization_endpoint or token_endpoint",
		}
	}

	if !d.registry.compareAndReplace(version, merged) {
		logger.Debug("discovery: provider %s was re-registered during fetch; result not cached", providerID)
	}
	logger.Flow(cfg.Logging, logger.Fields{"provider": providerID}, "discovered endpoints from %s", cfg.IssuerURL)
	return merged, nil
}

func withProvider(err error, providerID, issuer string) error {
	var de *domain.DiscoveryError
	if errors.As(err, &de) {
		out := *de
		out.ProviderID = providerID
		return &out
	}
	return &domain.DiscoveryError{ProviderID: providerID, URL: issuer, Message: "fetch failed", Err: err}
}

// mergeDiscovered fills endpoints the config left empty. Explicit values win.
func mergeDiscovered(cfg domain.ProviderConfig, meta *domain.ProviderMetadata) domain.ProviderConfig {
	out := cfg.Clone()
	if out.AuthorizationEndpoint == "" {
		out.AuthorizationEndpoint = meta.AuthorizationEndpoint
	}
	if out.TokenEndpoint == "" {
		out.TokenEndpoint = meta.TokenEndpoint
	}
	if out.EndSessionEndpoint == "" {
		out.EndSessionEndpoint = meta.EndSessionEndpoint
	}
	return out
}
