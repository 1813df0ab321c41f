package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driven"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/logger"
)

// tokenKeyPrefix namespaces token records in the key-value store.
const tokenKeyPrefix = "oauth2.tokens."

// storedTokens is the persisted record. ExpiresAt is epoch milliseconds.
type storedTokens struct {
	AccessToken  string   `json:"accessToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresAt    int64    `json:"expiresAt"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	IDToken      string   `json:"idToken,omitempty"`
	Scope        []string `json:"scope"`
}

// TokenStore persists one token set per provider id.
type TokenStore struct {
	kv  driven.KeyValueStore
	now func() time.Time
}

// NewTokenStore creates a TokenStore over kv.
func NewTokenStore(kv driven.KeyValueStore) *TokenStore {
	return &TokenStore{kv: kv, now: time.Now}
}

// TokenKey returns the storage key for a provider's tokens.
func TokenKey(providerID string) string {
	return tokenKeyPrefix + providerID
}

// Save replaces the provider's stored tokens.
func (s *TokenStore) Save(ctx context.Context, providerID string, tokens *domain.TokenSet) error {
	rec := storedTokens{
		AccessToken:  tokens.AccessToken,
		TokenType:    tokens.TokenType,
		RefreshToken: tokens.RefreshToken,
		IDToken:      tokens.IDToken,
		Scope:        tokens.Scopes,
	}
	if !tokens.ExpiresAt.IsZero() {
		rec.ExpiresAt = tokens.ExpiresAt.UnixMilli()
	}
	if rec.Scope == nil {
		rec.Scope = []string{}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if err := s.kv.Set(ctx, TokenKey(providerID), string(data)); err != nil {
		return fmt.Errorf("save tokens for %s: %w", providerID, err)
	}
	return nil
}

// Load returns the provider's stored tokens, or nil if none exist.
// A record without an access token, or one that cannot be decoded, counts as none.
func (s *TokenStore) Load(ctx context.Context, providerID string) (*domain.TokenSet, error) {
	raw, ok, err := s.kv.Get(ctx, TokenKey(providerID))
	if err != nil {
		return nil, fmt.Errorf("load tokens for %s: %w", providerID, err)
	}
	if !ok {
		return nil, nil
	}

	var rec storedTokens
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		logger.Warn("ignoring unreadable token record for %s: %v", providerID, err)
		return nil, nil
	}
	if rec.AccessToken == "" {
		return nil, nil
	}

	tokens := &domain.TokenSet{
		AccessToken:  rec.AccessToken,
		TokenType:    rec.TokenType,
		RefreshToken: rec.RefreshToken,
		IDToken:      rec.IDToken,
		Scopes:       rec.Scope,
	}
	if rec.ExpiresAt != 0 {
		tokens.ExpiresAt = time.UnixMilli(rec.ExpiresAt)
	}
	if len(tokens.Scopes) == 0 {
		tokens.Scopes = nil
	}
	return tokens, nil
}

// Delete removes the provider's stored tokens.
func (s *TokenStore) Delete(ctx context.Context, providerID string) error {
	if err := s.kv.Delete(ctx, TokenKey(providerID)); err != nil {
		return fmt.Errorf("delete tokens for %s: %w", providerID, err)
	}
	return nil
}

// IsExpired reports whether the stored access token is expired.
// A provider with no stored tokens is expired.
func (s *TokenStore) IsExpired(ctx context.Context, providerID string) (bool, error) {
	tokens, err := s.Load(ctx, providerID)
	if err != nil {
		return false, err
	}
	if tokens == nil {
		return true, nil
	}
	return tokens.IsExpired(s.now()), nil
}

// HasAccessToken reports whether an access token is stored.
func (s *TokenStore) HasAccessToken(ctx context.Context, providerID string) (bool, error) {
	tokens, err := s.Load(ctx, providerID)
	if err != nil {
		return false, err
	}
	return tokens.HasAccessToken(), nil
}

// HasRefreshToken reports whether a refresh token is stored.
func (s *TokenStore) HasRefreshToken(ctx context.Context, providerID string) (bool, error) {
	tokens, err := s.Load(ctx, providerID)
	if err != nil {
		return false, err
	}
	return tokens.HasRefreshToken(), nil
}
