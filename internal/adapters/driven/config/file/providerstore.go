package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driven"
)

// Ensure ProviderStore implements the interface.
var _ driven.ProviderConfigStore = (*ProviderStore)(nil)

// providerEntry is the on-disk shape of one [providers.<id>] table.
type providerEntry struct {
	Variant               string            `toml:"variant,omitempty"`
	ClientID              string            `toml:"client_id"`
	IssuerURL             string            `toml:"issuer_url,omitempty"`
	AuthorizationEndpoint string            `toml:"authorization_endpoint,omitempty"`
	TokenEndpoint         string            `toml:"token_endpoint,omitempty"`
	EndSessionEndpoint    string            `toml:"end_session_endpoint,omitempty"`
	RedirectURL           string            `toml:"redirect_url"`
	PostLogoutRedirectURL string            `toml:"post_logout_redirect_url,omitempty"`
	ResourceURL           string            `toml:"resource_url,omitempty"`
	ResponseType          string            `toml:"response_type,omitempty"`
	PKCE                  *bool             `toml:"pkce,omitempty"`
	Scope                 string            `toml:"scope,omitempty"`
	LoginHint             string            `toml:"login_hint,omitempty"`
	Prompt                string            `toml:"prompt,omitempty"`
	Logging               bool              `toml:"logging,omitempty"`
	AuthParams            map[string]string `toml:"auth_params,omitempty"`
	TokenParams           map[string]string `toml:"token_params,omitempty"`
	ResourceHeaders       map[string]string `toml:"resource_headers,omitempty"`
	LogoutParams          map[string]string `toml:"logout_params,omitempty"`
}

type providersFile struct {
	Providers map[string]providerEntry `toml:"providers"`
}

// ProviderStore persists provider configurations as TOML tables under
// [providers.<id>] in providers.toml.
type ProviderStore struct {
	mu       sync.Mutex
	filePath string
}

// NewProviderStore creates a TOML-backed provider store.
// If configDir is empty, defaults to ~/.sociallogin/providers.toml.
func NewProviderStore(configDir string) (*ProviderStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".sociallogin")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &ProviderStore{filePath: filepath.Join(configDir, "providers.toml")}, nil
}

// Path returns the providers file path.
func (s *ProviderStore) Path() string {
	return s.filePath
}

// List returns every stored provider sorted by ID.
func (s *ProviderStore) List() ([]domain.ProviderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(f.Providers))
	for id := range f.Providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	configs := make([]domain.ProviderConfig, 0, len(ids))
	for _, id := range ids {
		configs = append(configs, f.Providers[id].toDomain(id))
	}
	return configs, nil
}

// Save adds or replaces the provider with cfg.ID.
func (s *ProviderStore) Save(cfg domain.ProviderConfig) error {
	if cfg.ID == "" {
		return domain.ErrProviderIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	f.Providers[cfg.ID] = entryFromDomain(cfg)
	return s.save(f)
}

// Delete removes the provider. Deleting an unknown id is not an error.
func (s *ProviderStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := f.Providers[id]; !ok {
		return nil
	}
	delete(f.Providers, id)
	return s.save(f)
}

// load reads the providers file (caller must hold lock).
func (s *ProviderStore) load() (*providersFile, error) {
	f := &providersFile{}
	data, err := os.ReadFile(s.filePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := toml.Unmarshal(data, f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", s.filePath, err)
		}
	}
	if f.Providers == nil {
		f.Providers = make(map[string]providerEntry)
	}
	return f, nil
}

// save writes the providers file (caller must hold lock).
func (s *ProviderStore) save(f *providersFile) error {
	data, err := toml.Marshal(f)
	if err != nil {
		return err
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

func (e providerEntry) toDomain(id string) domain.ProviderConfig {
	pkce := true
	if e.PKCE != nil {
		pkce = *e.PKCE
	}
	return domain.ProviderConfig{
		ID:                        id,
		Variant:                   domain.ProviderVariant(e.Variant),
		ClientID:                  e.ClientID,
		IssuerURL:                 e.IssuerURL,
		AuthorizationEndpoint:     e.AuthorizationEndpoint,
		TokenEndpoint:             e.TokenEndpoint,
		EndSessionEndpoint:        e.EndSessionEndpoint,
		RedirectURL:               e.RedirectURL,
		PostLogoutRedirectURL:     e.PostLogoutRedirectURL,
		ResourceURL:               e.ResourceURL,
		ResponseType:              domain.ResponseType(e.ResponseType),
		PKCEEnabled:               pkce,
		Scope:                     e.Scope,
		AdditionalAuthParams:      e.AuthParams,
		AdditionalTokenParams:     e.TokenParams,
		AdditionalResourceHeaders: e.ResourceHeaders,
		AdditionalLogoutParams:    e.LogoutParams,
		LoginHint:                 e.LoginHint,
		Prompt:                    e.Prompt,
		Logging:                   e.Logging,
	}
}

func entryFromDomain(cfg domain.ProviderConfig) providerEntry {
	pkce := cfg.PKCEEnabled
	return providerEntry{
		Variant:               string(cfg.Variant),
		ClientID:              cfg.ClientID,
		IssuerURL:             cfg.IssuerURL,
		AuthorizationEndpoint: cfg.AuthorizationEndpoint,
		TokenEndpoint:         cfg.TokenEndpoint,
		EndSessionEndpoint:    cfg.EndSessionEndpoint,
		RedirectURL:           cfg.RedirectURL,
		PostLogoutRedirectURL: cfg.PostLogoutRedirectURL,
		ResourceURL:           cfg.ResourceURL,
		ResponseType:          string(cfg.ResponseType),
		PKCE:                  &pkce,
		Scope:                 cfg.Scope,
		LoginHint:             cfg.LoginHint,
		Prompt:                cfg.Prompt,
		Logging:               cfg.Logging,
		AuthParams:            cfg.AdditionalAuthParams,
		TokenParams:           cfg.AdditionalTokenParams,
		ResourceHeaders:       cfg.AdditionalResourceHeaders,
		LogoutParams:          cfg.AdditionalLogoutParams,
	}
}
