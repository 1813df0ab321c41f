package driven

import "context"

// KeyValueStore is an opaque string store.
// Implementations must be safe for concurrent use.
type KeyValueStore interface {
	// Get returns the value for key. The bool is false when the key does not exist.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
