package memory

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driven"
)

// Ensure KVStore implements the interface.
var _ driven.KeyValueStore = (*KVStore)(nil)

// KVStore is an in-memory implementation of driven.KeyValueStore.
// Values never expire; tokens carry their own expiry.
type KVStore struct {
	c *gocache.Cache
}

// NewKVStore creates a new in-memory key-value store.
func NewKVStore() *KVStore {
	return &KVStore{c: gocache.New(gocache.NoExpiration, 0)}
}

// Get retrieves the value stored under key.
func (s *KVStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return "", false, nil
	}
	str, _ := v.(string)
	return str, true, nil
}

// Set stores value under key.
func (s *KVStore) Set(_ context.Context, key, value string) error {
	s.c.Set(key, value, gocache.NoExpiration)
	return nil
}

// Delete removes key.
func (s *KVStore) Delete(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}
