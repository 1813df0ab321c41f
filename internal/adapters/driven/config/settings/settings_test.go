package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SOCIALLOGIN_HOME", home)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, home, s.Home)
	assert.Equal(t, StoreSQLite, s.Store)
	assert.Equal(t, 8085, s.CallbackPort)
	assert.Equal(t, 30*time.Second, s.HTTPTimeout)
	assert.InDelta(t, 5, s.HTTPRPS, 0)
	assert.Equal(t, 10, s.HTTPBurst)
	assert.Equal(t, 5*time.Minute, s.LoginTimeout)
	assert.False(t, s.Verbose)
	assert.Equal(t, filepath.Join(home, "data"), s.DataDir())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SOCIALLOGIN_HOME", t.TempDir())
	t.Setenv("SOCIALLOGIN_STORE", "bolt")
	t.Setenv("SOCIALLOGIN_CALLBACK_PORT", "9000")
	t.Setenv("SOCIALLOGIN_LOGIN_TIMEOUT", "90s")
	t.Setenv("SOCIALLOGIN_VERBOSE", "true")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreBolt, s.Store)
	assert.Equal(t, 9000, s.CallbackPort)
	assert.Equal(t, 90*time.Second, s.LoginTimeout)
	assert.True(t, s.Verbose)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("SOCIALLOGIN_STORE=memory\nSOCIALLOGIN_HTTP_BURST=3\n"), 0600))

	t.Setenv("SOCIALLOGIN_HOME", dir)
	t.Setenv("SOCIALLOGIN_STORE", "redis")
	// Registered with t.Setenv so the value godotenv sets is restored afterwards.
	t.Setenv("SOCIALLOGIN_HTTP_BURST", "")
	os.Unsetenv("SOCIALLOGIN_HTTP_BURST")

	s, err := Load(dotenv, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, StoreRedis, s.Store)
	assert.Equal(t, 3, s.HTTPBurst)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown store", "SOCIALLOGIN_STORE", "postgres"},
		{"bad port", "SOCIALLOGIN_CALLBACK_PORT", "70000"},
		{"unparsable duration", "SOCIALLOGIN_HTTP_TIMEOUT", "soon"},
		{"zero rps", "SOCIALLOGIN_HTTP_RPS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SOCIALLOGIN_HOME", t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
