package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStore_SetGetDelete(t *testing.T) {
	store := NewKVStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "oauth2.tokens.google", `{"accessToken":"a"}`))

	val, ok, err := store.Get(ctx, "oauth2.tokens.google")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"accessToken":"a"}`, val)

	require.NoError(t, store.Set(ctx, "oauth2.tokens.google", "replaced"))
	val, _, _ = store.Get(ctx, "oauth2.tokens.google")
	assert.Equal(t, "replaced", val)

	require.NoError(t, store.Delete(ctx, "oauth2.tokens.google"))
	_, ok, err = store.Get(ctx, "oauth2.tokens.google")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	assert.NoError(t, store.Delete(ctx, "oauth2.tokens.google"))
}

func TestKVStore_ConcurrentAccess(t *testing.T) {
	store := NewKVStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, "k", "v")
			_, _, _ = store.Get(ctx, "k")
			_ = store.Delete(ctx, "k")
		}()
	}
	wg.Wait()
}
