package services

import (
	"sort"
	"strings"
	"sync"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

// registeredProvider is one registry slot. Version increments on every write so
// a discovery merge can detect that the config changed underneath it.
type registeredProvider struct {
	config  domain.ProviderConfig
	version uint64
}

// ProviderRegistry holds the active provider configurations keyed by provider id.
// Entries are replaced as whole values; readers always see a complete config.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]registeredProvider
	next      uint64
}

// NewProviderRegistry creates an empty ProviderRegistry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]registeredProvider)}
}

// Register applies variant defaults, validates, and stores the config.
// An existing entry with the same id is replaced, dropping any discovered endpoints.
func (r *ProviderRegistry) Register(cfg domain.ProviderConfig) (domain.ProviderConfig, error) {
	cfg.ID = trimID(cfg.ID)
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return domain.ProviderConfig{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.providers[cfg.ID] = registeredProvider{config: cfg.Clone(), version: r.next}
	return cfg, nil
}

// Get returns a copy of the config registered under id.
func (r *ProviderRegistry) Get(id string) (domain.ProviderConfig, error) {
	cfg, _, err := r.lookup(id)
	return cfg, err
}

// Remove drops the provider. Removing an unknown id is a no-op.
func (r *ProviderRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, id)
}

// IDs returns the registered provider ids in sorted order.
func (r *ProviderRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *ProviderRegistry) lookup(id string) (domain.ProviderConfig, uint64, error) {
	if trimID(id) == "" {
		return domain.ProviderConfig{}, 0, domain.ErrProviderIDRequired
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.providers[id]
	if !ok {
		return domain.ProviderConfig{}, 0, domain.ErrProviderNotInitialized
	}
	return entry.config.Clone(), entry.version, nil
}

// compareAndReplace swaps in cfg only if the entry is still at version.
func (r *ProviderRegistry) compareAndReplace(version uint64, cfg domain.ProviderConfig) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.providers[cfg.ID]
	if !ok || entry.version != version {
		return false
	}
	r.next++
	r.providers[cfg.ID] = registeredProvider{config: cfg.Clone(), version: r.next}
	return true
}

func trimID(id string) string {
	return strings.TrimSpace(id)
}
