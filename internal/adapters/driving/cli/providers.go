package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Manage identity provider configurations",
	Long: `Add, list, and remove identity provider configurations.

Providers are stored in providers.toml under the sociallogin home directory.

Examples:
  # OIDC provider, endpoints discovered from the issuer
  sociallogin providers add google --issuer https://accounts.google.com --client-id ID

  # X (Twitter), endpoints and scopes are built in
  sociallogin providers add x --variant twitter --client-id ID

  # Plain OAuth2 provider with explicit endpoints
  sociallogin providers add gh --client-id ID \
    --auth-url https://github.com/login/oauth/authorize \
    --token-url https://github.com/login/oauth/access_token \
    --resource-url https://api.github.com/user`,
}

var providersAddCmd = &cobra.Command{
	Use:   "add [id]",
	Short: "Add or replace a provider",
	Long: `Add or replace a provider configuration.

Run without --client-id for an interactive wizard.`,
	Args: cobra.ExactArgs(1),
	RunE: runProvidersAdd,
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured providers",
	RunE:  runProvidersList,
}

var providersRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a provider configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersRemove,
}

// Flags for providers add.
var (
	addVariant            string
	addClientID           string
	addIssuer             string
	addAuthURL            string
	addTokenURL           string
	addEndSessionURL      string
	addRedirectURL        string
	addPostLogoutURL      string
	addResourceURL        string
	addResponseType       string
	addNoPKCE             bool
	addScope              string
	addLoginHint          string
	addPrompt             string
	addLogging            bool
	addAuthParams         map[string]string
	addTokenParams        map[string]string
	addResourceHeaders    map[string]string
	addLogoutParams       map[string]string
	addClientSecretPrompt bool
)

func init() {
	f := providersAddCmd.Flags()
	f.StringVar(&addVariant, "variant", "", "Provider variant (generic, twitter)")
	f.StringVar(&addClientID, "client-id", "", "OAuth client ID")
	f.StringVar(&addIssuer, "issuer", "", "OIDC issuer URL used for discovery")
	f.StringVar(&addAuthURL, "auth-url", "", "Authorization endpoint")
	f.StringVar(&addTokenURL, "token-url", "", "Token endpoint")
	f.StringVar(&addEndSessionURL, "end-session-url", "", "End-session (logout) endpoint")
	f.StringVar(&addRedirectURL, "redirect-url", "", "Redirect URL (default http://127.0.0.1:<callback port>/callback)")
	f.StringVar(&addPostLogoutURL, "post-logout-redirect-url", "", "Redirect URL after logout (default: redirect URL)")
	f.StringVar(&addResourceURL, "resource-url", "", "Profile endpoint fetched after login")
	f.StringVar(&addResponseType, "response-type", "", "code (default) or token")
	f.BoolVar(&addNoPKCE, "no-pkce", false, "Disable PKCE for the code flow")
	f.StringVar(&addScope, "scope", "", "Default space-separated scopes")
	f.StringVar(&addLoginHint, "login-hint", "", "Default login_hint")
	f.StringVar(&addPrompt, "prompt", "", "Default prompt")
	f.BoolVar(&addLogging, "logging", false, "Log this provider's flow steps")
	f.StringToStringVar(&addAuthParams, "auth-param", nil, "Extra authorization parameter (key=value)")
	f.StringToStringVar(&addTokenParams, "token-param", nil, "Extra token request parameter (key=value)")
	f.StringToStringVar(&addResourceHeaders, "resource-header", nil, "Extra resource request header (key=value)")
	f.StringToStringVar(&addLogoutParams, "logout-param", nil, "Extra end-session parameter (key=value)")
	f.BoolVar(&addClientSecretPrompt, "client-secret", false, "Prompt for a client secret sent with token requests")

	providersCmd.AddCommand(providersAddCmd)
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersRemoveCmd)
	rootCmd.AddCommand(providersCmd)
}

func runProvidersAdd(cmd *cobra.Command, args []string) error {
	store, err := requireProviderStore()
	if err != nil {
		return err
	}

	cfg := domain.ProviderConfig{
		ID:                        strings.TrimSpace(args[0]),
		Variant:                   domain.ProviderVariant(addVariant),
		ClientID:                  addClientID,
		IssuerURL:                 addIssuer,
		AuthorizationEndpoint:     addAuthURL,
		TokenEndpoint:             addTokenURL,
		EndSessionEndpoint:        addEndSessionURL,
		RedirectURL:               addRedirectURL,
		PostLogoutRedirectURL:     addPostLogoutURL,
		ResourceURL:               addResourceURL,
		ResponseType:              domain.ResponseType(addResponseType),
		PKCEEnabled:               !addNoPKCE,
		Scope:                     addScope,
		AdditionalAuthParams:      addAuthParams,
		AdditionalTokenParams:     addTokenParams,
		AdditionalResourceHeaders: addResourceHeaders,
		AdditionalLogoutParams:    addLogoutParams,
		LoginHint:                 addLoginHint,
		Prompt:                    addPrompt,
		Logging:                   addLogging,
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	if cfg.ClientID == "" {
		runProvidersWizard(cmd, reader, &cfg)
	}
	if addClientSecretPrompt {
		cmd.Print("Client secret: ")
		secret := readSecret(cmd.InOrStdin(), reader)
		cmd.Println()
		if secret != "" {
			if cfg.AdditionalTokenParams == nil {
				cfg.AdditionalTokenParams = make(map[string]string)
			}
			cfg.AdditionalTokenParams["client_secret"] = secret
		}
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = defaultRedirectURL()
	}

	if err := cfg.WithDefaults().Validate(); err != nil {
		return fmt.Errorf("invalid provider: %w", err)
	}
	if err := store.Save(cfg); err != nil {
		return fmt.Errorf("failed to save provider: %w", err)
	}
	if cliConfig.Service != nil {
		if err := cliConfig.Service.Initialize(cmd.Context(), []domain.ProviderConfig{cfg}); err != nil {
			return fmt.Errorf("failed to register provider: %w", err)
		}
	}

	cmd.Printf("Saved provider: %s\n", cfg.ID)
	cmd.Printf("Redirect URL (register this with the provider): %s\n", cfg.RedirectURL)
	cmd.Printf("Sign in with: sociallogin login %s\n", cfg.ID)
	return nil
}

func runProvidersWizard(cmd *cobra.Command, reader *bufio.Reader, cfg *domain.ProviderConfig) {
	if cfg.Variant == "" {
		cmd.Println("Provider variant:")
		cmd.Println("  1. generic (any OAuth2 / OpenID Connect provider)")
		cmd.Println("  2. twitter (X)")
		cmd.Print("Choice [1]: ")
		if parseChoice(readLine(reader), 2, 1) == 2 {
			cfg.Variant = domain.VariantTwitter
		} else {
			cfg.Variant = domain.VariantGeneric
		}
	}

	cmd.Print("Client ID: ")
	cfg.ClientID = readLine(reader)

	if cfg.Variant == domain.VariantTwitter || cfg.IssuerURL != "" || cfg.AuthorizationEndpoint != "" {
		return
	}
	cmd.Print("Issuer URL (leave empty to enter endpoints): ")
	if cfg.IssuerURL = readLine(reader); cfg.IssuerURL != "" {
		return
	}
	cmd.Print("Authorization endpoint: ")
	cfg.AuthorizationEndpoint = readLine(reader)
	cmd.Print("Token endpoint: ")
	cfg.TokenEndpoint = readLine(reader)
}

func defaultRedirectURL() string {
	port := 8085
	if cliConfig != nil && cliConfig.CallbackPort > 0 {
		port = cliConfig.CallbackPort
	}
	return fmt.Sprintf("http://127.0.0.1:%d/callback", port)
}

func runProvidersList(cmd *cobra.Command, _ []string) error {
	store, err := requireProviderStore()
	if err != nil {
		return err
	}

	configs, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list providers: %w", err)
	}
	if len(configs) == 0 {
		cmd.Println("No configured providers.")
		cmd.Println("Add one with: sociallogin providers add")
		return nil
	}

	st := newStyles(cmd.OutOrStdout())
	for i := range configs {
		cfg := configs[i].WithDefaults()
		cmd.Println(st.Title.Render(cfg.ID))
		cmd.Println(st.row("Variant:", string(cfg.Variant)))
		cmd.Println(st.row("Client:", cfg.ClientID))
		if cfg.IssuerURL != "" {
			cmd.Println(st.row("Issuer:", cfg.IssuerURL))
		}
		if cfg.AuthorizationEndpoint != "" {
			cmd.Println(st.row("Authorize:", cfg.AuthorizationEndpoint))
		}
		cmd.Println(st.row("Redirect:", cfg.RedirectURL))
		if cfg.Scope != "" {
			cmd.Println(st.row("Scope:", cfg.Scope))
		}
		if secret, ok := cfg.AdditionalTokenParams["client_secret"]; ok {
			cmd.Println(st.row("Secret:", maskSecret(secret)))
		}
		cmd.Println()
	}
	return nil
}

func runProvidersRemove(cmd *cobra.Command, args []string) error {
	store, err := requireProviderStore()
	if err != nil {
		return err
	}

	if err := store.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to remove provider: %w", err)
	}
	cmd.Printf("Removed provider: %s\n", args[0])
	cmd.Printf("Stored tokens are kept; run 'sociallogin logout %s' first to delete them.\n", args[0])
	return nil
}
