package bolt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetDelete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "oauth2.tokens.github")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "oauth2.tokens.github", `{"accessToken":"a"}`))
	val, ok, err := store.Get(ctx, "oauth2.tokens.github")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"accessToken":"a"}`, val)

	require.NoError(t, store.Delete(ctx, "oauth2.tokens.github"))
	_, ok, err = store.Get(ctx, "oauth2.tokens.github")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Delete(ctx, "never-set"))
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	val, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)
}
