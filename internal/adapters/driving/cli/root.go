// Package cli provides the cobra command tree for the sociallogin binary.
package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driven"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driving"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Config holds the dependencies the commands run against.
type Config struct {
	Service   driving.OAuthService
	Providers driven.ProviderConfigStore
	// CallbackPort is used when a provider's redirect URL is not a loopback address.
	CallbackPort int
	// LoginTimeout bounds how long login waits for the browser to come back.
	LoginTimeout time.Duration
}

// cliConfig holds the current command configuration.
var cliConfig *Config

// SetConfig sets the dependencies for all commands.
func SetConfig(config *Config) {
	cliConfig = config
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "sociallogin",
	Short: "Sign in to OAuth2 / OpenID Connect providers from the terminal",
	Long: `sociallogin runs the OAuth2 authorization code flow with PKCE against any
number of configured identity providers, stores the resulting tokens, and
refreshes them on demand.

Examples:
  sociallogin providers add google --issuer https://accounts.google.com --client-id ID
  sociallogin login google
  sociallogin status
  sociallogin token google`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func requireService() (driving.OAuthService, error) {
	if cliConfig == nil || cliConfig.Service == nil {
		return nil, errors.New("oauth service not configured")
	}
	return cliConfig.Service, nil
}

func requireProviderStore() (driven.ProviderConfigStore, error) {
	if cliConfig == nil || cliConfig.Providers == nil {
		return nil, errors.New("provider store not configured")
	}
	return cliConfig.Providers, nil
}
