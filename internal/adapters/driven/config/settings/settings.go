// Package settings loads process-level settings from the environment,
// optionally seeded from a .env file.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// StoreKind selects the token store backend.
type StoreKind string

const (
	StoreSQLite StoreKind = "sqlite"
	StoreBolt   StoreKind = "bolt"
	StoreMemory StoreKind = "memory"
	StoreRedis  StoreKind = "redis"
)

// Settings are the process settings shared by every command.
type Settings struct {
	// Home holds providers.toml and the data directory. Defaults to ~/.sociallogin.
	Home         string        `env:"SOCIALLOGIN_HOME"`
	Store        StoreKind     `env:"SOCIALLOGIN_STORE"         envDefault:"sqlite"`
	RedisAddr    string        `env:"SOCIALLOGIN_REDIS_ADDR"    envDefault:"127.0.0.1:6379"`
	CallbackPort int           `env:"SOCIALLOGIN_CALLBACK_PORT" envDefault:"8085"`
	HTTPTimeout  time.Duration `env:"SOCIALLOGIN_HTTP_TIMEOUT"  envDefault:"30s"`
	HTTPRPS      float64       `env:"SOCIALLOGIN_HTTP_RPS"      envDefault:"5"`
	HTTPBurst    int           `env:"SOCIALLOGIN_HTTP_BURST"    envDefault:"10"`
	LoginTimeout time.Duration `env:"SOCIALLOGIN_LOGIN_TIMEOUT" envDefault:"5m"`
	Verbose      bool          `env:"SOCIALLOGIN_VERBOSE"`
	// MetricsFile receives the run's counters in Prometheus text format when set.
	MetricsFile string `env:"SOCIALLOGIN_METRICS_FILE"`
}

// Load reads the given .env files (missing files are skipped) and then parses
// the environment. Variables already set in the environment win over .env values.
func Load(dotenvFiles ...string) (Settings, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Settings{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}

	if s.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Settings{}, fmt.Errorf("getting home directory: %w", err)
		}
		s.Home = filepath.Join(home, ".sociallogin")
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges env.Parse cannot express.
func (s Settings) Validate() error {
	switch s.Store {
	case StoreSQLite, StoreBolt, StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("SOCIALLOGIN_STORE: unknown store %q", s.Store)
	}
	if s.CallbackPort < 0 || s.CallbackPort > 65535 {
		return fmt.Errorf("SOCIALLOGIN_CALLBACK_PORT: %d out of range", s.CallbackPort)
	}
	if s.HTTPRPS <= 0 {
		return fmt.Errorf("SOCIALLOGIN_HTTP_RPS: must be positive")
	}
	if s.HTTPBurst < 1 {
		return fmt.Errorf("SOCIALLOGIN_HTTP_BURST: must be at least 1")
	}
	return nil
}

// DataDir is where file-backed token stores live.
func (s Settings) DataDir() string {
	return filepath.Join(s.Home, "data")
}
