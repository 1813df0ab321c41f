// Command sociallogin signs in to OAuth2 / OpenID Connect providers from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driven/browser"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driven/config/file"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driven/config/settings"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driven/httpclient"
	idp "github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driven/oauth"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driven/storage/bolt"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driven/storage/memory"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driven/storage/redis"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driven/storage/sqlite"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driving/cli"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driven"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/services"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/logger"
)

func main() {
	if err := run(); err != nil {
		// cobra has already printed command errors
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := settings.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	logger.SetVerbose(cfg.Verbose)

	kv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening token store: %v\n", err)
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	metrics, err := services.NewMetrics(registry)
	if err != nil {
		return err
	}

	client := idp.NewClient(httpclient.New(httpclient.Config{
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.HTTPRPS,
		BurstSize:         cfg.HTTPBurst,
	}))
	svc := services.NewOAuthService(services.OAuthServiceConfig{
		Store:     kv,
		Metadata:  client,
		Tokens:    client,
		Resources: client,
		Browser:   browser.New(),
		Metrics:   metrics,
	})

	providers, err := file.NewProviderStore(cfg.Home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening provider store: %v\n", err)
		return err
	}
	if err := registerProviders(ctx, svc, providers); err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading providers: %v\n", err)
		return err
	}

	cli.SetConfig(&cli.Config{
		Service:      svc,
		Providers:    providers,
		CallbackPort: cfg.CallbackPort,
		LoginTimeout: cfg.LoginTimeout,
	})

	err = cli.Execute()
	if cfg.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(cfg.MetricsFile, registry); werr != nil {
			logger.Warn("writing metrics to %s: %v", cfg.MetricsFile, werr)
		}
	}
	return err
}

// openStore returns the token store selected by settings and its closer.
func openStore(ctx context.Context, cfg settings.Settings) (driven.KeyValueStore, func(), error) {
	switch cfg.Store {
	case settings.StoreBolt:
		s, err := bolt.NewStore(cfg.DataDir())
		if err != nil {
			return nil, nil, err
		}
		return s, closer(s), nil
	case settings.StoreRedis:
		s, err := redis.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return s, closer(s), nil
	case settings.StoreMemory:
		logger.Warn("using in-memory token store; tokens are lost when the process exits")
		return memory.NewKVStore(), func() {}, nil
	default:
		s, err := sqlite.NewStore(cfg.DataDir())
		if err != nil {
			return nil, nil, err
		}
		return s, closer(s), nil
	}
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("closing token store: %v", err)
		}
	}
}

// registerProviders loads the stored providers, skipping any that fail validation.
func registerProviders(ctx context.Context, svc *services.OAuthService, store *file.ProviderStore) error {
	configs, err := store.List()
	if err != nil {
		return err
	}

	valid := make([]domain.ProviderConfig, 0, len(configs))
	for _, c := range configs {
		if err := c.WithDefaults().Validate(); err != nil {
			logger.Warn("skipping provider %s: %v", c.ID, err)
			continue
		}
		valid = append(valid, c)
	}
	return svc.Initialize(ctx, valid)
}
