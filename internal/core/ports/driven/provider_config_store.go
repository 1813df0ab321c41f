package driven

import "github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"

// ProviderConfigStore persists provider configurations between runs.
type ProviderConfigStore interface {
	// List returns all stored provider configurations, sorted by ID.
	List() ([]domain.ProviderConfig, error)

	// Save stores a provider configuration. Creates if new, replaces if exists.
	Save(cfg domain.ProviderConfig) error

	// Delete removes a provider configuration by ID.
	Delete(id string) error
}
