package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driving/oauth"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/logger"
)

var loginCmd = &cobra.Command{
	Use:   "login [provider]",
	Short: "Sign in to a provider",
	Long: `Sign in to a configured provider.

The authorization URL is opened in your browser. A local server receives the
redirect, the authorization code is exchanged for tokens, and the tokens are
stored for later use.

Examples:
  sociallogin login google
  sociallogin login corp --scope "openid email offline_access" --prompt consent
  sociallogin login x --force-login`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

// Flags for login.
var (
	loginScope        string
	loginHint         string
	loginPrompt       string
	loginForce        bool
	loginParams       map[string]string
	loginTimeout      time.Duration
	loginShowResource bool
)

func init() {
	loginCmd.Flags().StringVar(&loginScope, "scope", "", "Space-separated scopes (overrides the provider default)")
	loginCmd.Flags().StringVar(&loginHint, "login-hint", "", "login_hint sent to the provider")
	loginCmd.Flags().StringVar(&loginPrompt, "prompt", "", "prompt sent to the provider (e.g. login, consent)")
	loginCmd.Flags().BoolVar(&loginForce, "force-login", false, "Force re-authentication where supported")
	loginCmd.Flags().StringToStringVar(&loginParams, "param", nil, "Extra authorization parameter (key=value, repeatable)")
	loginCmd.Flags().DurationVar(&loginTimeout, "timeout", 0, "How long to wait for the browser (default from settings)")
	loginCmd.Flags().BoolVar(&loginShowResource, "show-resource", false, "Print the fetched profile")

	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	svc, err := requireService()
	if err != nil {
		return err
	}
	providerID := args[0]

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if timeout := effectiveLoginTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := domain.LoginRequest{
		ProviderID:       providerID,
		Scope:            loginScope,
		LoginHint:        loginHint,
		Prompt:           loginPrompt,
		ForceLogin:       loginForce,
		AdditionalParams: loginParams,
	}

	port, path, override := callbackAddress(providerID)
	server := oauth.NewCallbackServer(port, path, svc)
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting callback server: %w", err)
	}
	defer server.Stop()
	if override {
		req.RedirectURL = server.RedirectURI()
		logger.Debug("login for %s redirects to %s", providerID, req.RedirectURL)
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go svc.Run(runCtx) //nolint:errcheck // returns ctx.Err() on shutdown

	flow, err := svc.Begin(ctx, req)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	server.Expect(flow.CorrelationID)

	cmd.PrintErrln("Waiting for the browser to complete sign-in...")
	var (
		result  *domain.LoginResult
		waitErr error
	)
	done := make(chan struct{})
	go func() {
		result, waitErr = flow.Wait(ctx)
		close(done)
	}()
	select {
	case <-done:
	case serr := <-server.Errors():
		svc.Abandon(flow)
		return fmt.Errorf("callback server: %w", serr)
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			svc.Abandon(flow)
			return fmt.Errorf("login abandoned: %w", ctx.Err())
		}
		return fmt.Errorf("login failed: %w", waitErr)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Success.Render("Logged in to " + result.ProviderID))
	printTokenSummary(cmd, st, &result.Tokens)
	if loginShowResource && len(result.Resource) > 0 {
		cmd.Println()
		cmd.Println(prettyJSON(result.Resource))
	}
	return nil
}

// callbackAddress picks where the local callback server listens. override is
// true when the provider's redirect URL cannot be served locally, or asks for
// any free port, so the login must send the server's own address instead.
func callbackAddress(providerID string) (port int, path string, override bool) {
	if cfg, ok := storedProvider(providerID); ok {
		p, pth, err := oauth.ParseLoopbackRedirect(cfg.RedirectURL)
		if err == nil {
			return p, pth, p == 0
		}
	}

	start := oauth.DefaultCallbackPort
	if cliConfig != nil && cliConfig.CallbackPort > 0 {
		start = cliConfig.CallbackPort
	}
	p, err := oauth.FindAvailablePort(start, start+20)
	if err != nil {
		p = 0
	}
	return p, oauth.DefaultPath, true
}

func storedProvider(id string) (domain.ProviderConfig, bool) {
	store, err := requireProviderStore()
	if err != nil {
		return domain.ProviderConfig{}, false
	}
	configs, err := store.List()
	if err != nil {
		return domain.ProviderConfig{}, false
	}
	for _, cfg := range configs {
		if cfg.ID == id {
			return cfg, true
		}
	}
	return domain.ProviderConfig{}, false
}

func effectiveLoginTimeout() time.Duration {
	if loginTimeout > 0 {
		return loginTimeout
	}
	if cliConfig != nil {
		return cliConfig.LoginTimeout
	}
	return 0
}

func printTokenSummary(cmd *cobra.Command, st styles, tokens *domain.TokenSet) {
	cmd.Println(st.row("Type:", tokens.TokenType))
	cmd.Println(st.row("Expires:", formatExpiry(tokens.ExpiresAt)))
	cmd.Println(st.row("Refresh:", yesNo(tokens.HasRefreshToken())))
	if len(tokens.Scopes) > 0 {
		cmd.Println(st.row("Scopes:", strings.Join(tokens.Scopes, " ")))
	}
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Until(t).Round(time.Second)
	if d <= 0 {
		return fmt.Sprintf("%s (expired)", t.Local().Format(time.RFC3339))
	}
	return fmt.Sprintf("%s (in %s)", t.Local().Format(time.RFC3339), d)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
