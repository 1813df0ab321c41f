package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driven"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driving"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/logger"
)

const defaultCallbackBuffer = 16

// ErrCallbackQueueFull is returned by Deliver when the Run loop is not keeping up.
var ErrCallbackQueueFull = errors.New("callback queue full")

// OAuthServiceConfig holds the ports the OAuthService drives.
type OAuthServiceConfig struct {
	// Store persists tokens. Required.
	Store driven.KeyValueStore
	// Metadata, Tokens and Resources talk to identity providers. Required.
	Metadata  driven.MetadataFetcher
	Tokens    driven.TokenEndpoint
	Resources driven.ResourceFetcher
	// Browser opens the login and logout URLs. When nil the caller opens Flow.AuthURL itself.
	Browser driven.Browser
	// Metrics may be nil.
	Metrics *Metrics
	// CallbackBuffer sizes the Deliver queue; zero means 16.
	CallbackBuffer int
}

// OAuthService coordinates provider logins, refreshes, and logouts.
type OAuthService struct {
	registry  *ProviderRegistry
	discovery *DiscoveryResolver
	tracker   *FlowTracker
	store     *TokenStore
	tokens    driven.TokenEndpoint
	resources driven.ResourceFetcher
	browser   driven.Browser
	metrics   *Metrics
	events    chan domain.CallbackEvent
	now       func() time.Time
}

// Verify interface compliance.
var _ driving.OAuthService = (*OAuthService)(nil)

// NewOAuthService creates an OAuthService with an empty provider registry.
func NewOAuthService(cfg OAuthServiceConfig) *OAuthService {
	buffer := cfg.CallbackBuffer
	if buffer <= 0 {
		buffer = defaultCallbackBuffer
	}
	registry := NewProviderRegistry()
	return &OAuthService{
		registry:  registry,
		discovery: NewDiscoveryResolver(registry, cfg.Metadata, cfg.Metrics),
		tracker:   NewFlowTracker(),
		store:     NewTokenStore(cfg.Store),
		tokens:    cfg.Tokens,
		resources: cfg.Resources,
		browser:   cfg.Browser,
		metrics:   cfg.Metrics,
		events:    make(chan domain.CallbackEvent, buffer),
		now:       time.Now,
	}
}

// Initialize registers provider configurations. Every config is validated
// before any is registered, so one bad entry leaves the registry unchanged.
func (s *OAuthService) Initialize(_ context.Context, configs []domain.ProviderConfig) error {
	for _, cfg := range configs {
		cfg.ID = trimID(cfg.ID)
		if err := cfg.WithDefaults().Validate(); err != nil {
			return err
		}
	}
	for _, cfg := range configs {
		registered, err := s.registry.Register(cfg)
		if err != nil {
			return err
		}
		logger.Flow(registered.Logging, logger.Fields{"provider": registered.ID},
			"registered %s provider", registered.Variant)
	}
	return nil
}

// Providers returns the registered provider IDs, sorted.
func (s *OAuthService) Providers() []string {
	return s.registry.IDs()
}

// Begin resolves endpoints, records the pending login, and opens the login surface.
func (s *OAuthService) Begin(ctx context.Context, req domain.LoginRequest) (*driving.Flow, error) {
	req.ProviderID = trimID(req.ProviderID)
	cfg, err := s.discovery.Resolve(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if s.tracker.State(cfg.ID) != domain.FlowIdle {
		return nil, domain.ErrFlowAlreadyPending
	}

	pending := domain.PendingAuthState{
		CorrelationID: uuid.NewString(),
		ProviderID:    cfg.ID,
		State:         req.State,
		CodeVerifier:  req.CodeVerifier,
		RedirectURL:   firstNonEmpty(req.RedirectURL, cfg.RedirectURL),
		Scope:         req.EffectiveScope(cfg.Scope),
		ResponseType:  cfg.ResponseType,
		PKCE:          cfg.PKCEEnabled && cfg.IsCodeFlow(),
		CreatedAt:     s.now(),
	}
	if pending.State == "" {
		if pending.State, err = generateState(); err != nil {
			return nil, err
		}
	}

	var challenge string
	if pending.PKCE {
		if pending.CodeVerifier == "" {
			if pending.CodeVerifier, err = generateCodeVerifier(); err != nil {
				return nil, err
			}
		}
		challenge = generateCodeChallenge(pending.CodeVerifier)
	} else {
		pending.CodeVerifier = ""
	}

	authURL, err := BuildAuthURL(cfg, pending, challenge, req)
	if err != nil {
		return nil, err
	}

	outcome, err := s.tracker.Begin(pending)
	if err != nil {
		return nil, err
	}
	fields := logger.Fields{"provider": cfg.ID, "correlation": pending.CorrelationID}
	logger.Flow(cfg.Logging, fields, "login started (pkce=%t, response_type=%s)", pending.PKCE, pending.ResponseType)

	if s.browser != nil {
		if err := s.browser.Open(ctx, authURL); err != nil {
			s.tracker.Abandon(pending.CorrelationID)
			err = fmt.Errorf("%w: %v", domain.ErrLoginSurface, err)
			s.metrics.login(cfg.ID, err)
			return nil, err
		}
	}

	return driving.NewFlow(pending.CorrelationID, cfg.ID, authURL, pending.RedirectURL, outcome), nil
}

// Login starts a login and waits for its callback. Cancelling ctx while the
// login is still awaiting its callback abandons it and frees the provider.
func (s *OAuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	flow, err := s.Begin(ctx, req)
	if err != nil {
		return nil, err
	}
	result, err := flow.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		s.abandon(flow, ctx.Err())
	}
	return result, err
}

// Abandon drops flow if it is still awaiting its callback, freeing the
// provider for a new login. It reports whether the flow was dropped.
func (s *OAuthService) Abandon(flow *driving.Flow) bool {
	return s.abandon(flow, context.Canceled)
}

func (s *OAuthService) abandon(flow *driving.Flow, cause error) bool {
	if flow == nil || !s.tracker.Abandon(flow.CorrelationID) {
		return false
	}
	logger.Debug("login for %s abandoned: %v", flow.ProviderID, cause)
	s.metrics.login(flow.ProviderID, cause)
	return true
}

// HandleCallback correlates event with its pending login and completes it.
// Events that match no awaiting login return ErrNoPendingFlow and change nothing.
func (s *OAuthService) HandleCallback(ctx context.Context, event domain.CallbackEvent) error {
	pending, err := s.tracker.Claim(event.CorrelationID)
	if err != nil {
		logger.Debug("ignoring callback %s: %v", event.CorrelationID, err)
		return err
	}

	result, err := s.completeLogin(ctx, pending, event)
	s.tracker.Finish(event.CorrelationID, driving.FlowOutcome{Result: result, Err: err})
	s.metrics.login(pending.ProviderID, err)

	cfg, _ := s.registry.Get(pending.ProviderID)
	fields := logger.Fields{"provider": pending.ProviderID, "correlation": event.CorrelationID}
	if err != nil {
		logger.Flow(cfg.Logging, fields, "login failed: %v", err)
	} else {
		logger.Flow(cfg.Logging, fields, "login complete")
	}
	return err
}

func (s *OAuthService) completeLogin(
	ctx context.Context,
	pending domain.PendingAuthState,
	event domain.CallbackEvent,
) (*domain.LoginResult, error) {
	switch event.Status {
	case domain.CallbackCancelled:
		return nil, domain.ErrUserCancelled
	case domain.CallbackError:
		return nil, fmt.Errorf("%w: %s", domain.ErrLoginSurface, event.Message)
	}

	if code := event.Param("error"); code != "" {
		return nil, &domain.ProviderError{Code: code, Description: event.Param("error_description")}
	}
	if !stateMatches(event.Param("state"), pending.State) {
		return nil, domain.ErrStateMismatch
	}

	cfg, err := s.registry.Get(pending.ProviderID)
	if err != nil {
		return nil, err
	}

	var tokens *domain.TokenSet
	switch {
	case event.Param("code") != "":
		tokens, err = s.exchangeCode(ctx, cfg, pending, event.Param("code"))
	case event.Param("access_token") != "":
		tokens = tokensFromFragment(event.Params, s.now())
	default:
		err = domain.ErrMissingCallbackData
	}
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, cfg, tokens)
}

func (s *OAuthService) exchangeCode(
	ctx context.Context,
	cfg domain.ProviderConfig,
	pending domain.PendingAuthState,
	code string,
) (*domain.TokenSet, error) {
	if cfg.TokenEndpoint == "" {
		return nil, &domain.ConfigError{ProviderID: cfg.ID, Field: "accessTokenEndpoint", Reason: "is required to redeem a code"}
	}
	exchange := domain.CodeExchange{
		TokenURL:    cfg.TokenEndpoint,
		ClientID:    cfg.ClientID,
		Code:        code,
		RedirectURL: pending.RedirectURL,
		Params:      cfg.AdditionalTokenParams,
	}
	if pending.PKCE {
		exchange.CodeVerifier = pending.CodeVerifier
	}
	tokens, err := s.tokens.ExchangeCode(ctx, exchange)
	s.metrics.tokenRequest(cfg.ID, "authorization_code", err)
	return tokens, err
}

// finish fetches the optional resource and persists tokens.
func (s *OAuthService) finish(ctx context.Context, cfg domain.ProviderConfig, tokens *domain.TokenSet) (*domain.LoginResult, error) {
	result := &domain.LoginResult{ProviderID: cfg.ID, Tokens: *tokens}

	if cfg.ResourceURL != "" && s.resources != nil {
		resource, err := s.resources.FetchResource(ctx, domain.ResourceRequest{
			URL:         cfg.ResourceURL,
			AccessToken: tokens.AccessToken,
			Headers:     cfg.AdditionalResourceHeaders,
		})
		if err != nil {
			logger.Warn("resource fetch for %s failed: %v", cfg.ID, err)
		} else {
			result.Resource = resource
		}
	}

	if err := s.store.Save(ctx, cfg.ID, tokens); err != nil {
		return nil, err
	}
	return result, nil
}

// Deliver queues a callback event for the Run loop without blocking.
func (s *OAuthService) Deliver(event domain.CallbackEvent) error {
	select {
	case s.events <- event:
		return nil
	default:
		return ErrCallbackQueueFull
	}
}

// Run handles delivered callback events until ctx is done. Events for
// different providers complete concurrently. Run waits for in-flight
// callbacks before returning ctx.Err().
func (s *OAuthService) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-s.events:
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.HandleCallback(ctx, event)
			}()
		}
	}
}

// Refresh exchanges the refresh token for a new token set and persists it.
// On failure the stored tokens are left untouched.
func (s *OAuthService) Refresh(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResult, error) {
	req.ProviderID = trimID(req.ProviderID)
	cfg, err := s.discovery.Resolve(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if cfg.TokenEndpoint == "" {
		return nil, &domain.ConfigError{ProviderID: cfg.ID, Field: "accessTokenEndpoint", Reason: "is required to refresh"}
	}

	stored, err := s.store.Load(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}
	refreshToken := req.RefreshToken
	if refreshToken == "" {
		if !stored.HasRefreshToken() {
			return nil, domain.ErrNoRefreshToken
		}
		refreshToken = stored.RefreshToken
	}

	tokens, err := s.tokens.Refresh(ctx, domain.RefreshGrant{
		TokenURL:     cfg.TokenEndpoint,
		ClientID:     cfg.ClientID,
		RefreshToken: refreshToken,
		Params:       mergeParams(cfg.AdditionalTokenParams, req.AdditionalParams),
	})
	s.metrics.tokenRequest(cfg.ID, "refresh_token", err)
	if err != nil {
		logger.Flow(cfg.Logging, logger.Fields{"provider": cfg.ID}, "refresh failed: %v", err)
		return nil, err
	}

	// Providers usually omit the ID token and scope on refresh.
	if stored != nil {
		if tokens.IDToken == "" {
			tokens.IDToken = stored.IDToken
		}
		if len(tokens.Scopes) == 0 {
			tokens.Scopes = stored.Scopes
		}
	}

	result, err := s.finish(ctx, cfg, tokens)
	if err != nil {
		return nil, err
	}
	logger.Flow(cfg.Logging, logger.Fields{"provider": cfg.ID}, "tokens refreshed")
	return result, nil
}

// Logout deletes stored tokens, then best-effort opens the provider's
// end-session URL. Only the local deletion can fail the call.
func (s *OAuthService) Logout(ctx context.Context, providerID string) error {
	providerID = trimID(providerID)
	cfg, err := s.registry.Get(providerID)
	if err != nil {
		return err
	}

	stored, err := s.store.Load(ctx, cfg.ID)
	if err != nil {
		logger.Warn("reading tokens before logout for %s: %v", cfg.ID, err)
	}
	if err := s.store.Delete(ctx, cfg.ID); err != nil {
		return err
	}
	logger.Flow(cfg.Logging, logger.Fields{"provider": cfg.ID}, "local tokens deleted")

	if resolved, err := s.discovery.Resolve(ctx, cfg.ID); err == nil {
		cfg = resolved
	} else {
		logger.Debug("logout for %s: endpoints not resolved: %v", cfg.ID, err)
	}
	logoutURL, err := EndSessionURL(cfg, stored)
	if err != nil {
		logger.Warn("logout for %s: %v", cfg.ID, err)
		return nil
	}
	if logoutURL == "" || s.browser == nil {
		return nil
	}
	if err := s.browser.Open(ctx, logoutURL); err != nil {
		logger.Warn("opening end-session page for %s failed: %v", cfg.ID, err)
	}
	return nil
}

// EndSessionURL builds the provider logout URL, or "" when the provider has no end-session endpoint.
func EndSessionURL(cfg domain.ProviderConfig, tokens *domain.TokenSet) (string, error) {
	if cfg.EndSessionEndpoint == "" {
		return "", nil
	}
	u, err := url.Parse(cfg.EndSessionEndpoint)
	if err != nil {
		return "", fmt.Errorf("invalid end-session endpoint: %w", err)
	}
	q := u.Query()
	if tokens != nil && tokens.IDToken != "" {
		q.Set("id_token_hint", tokens.IDToken)
	}
	if redirect := firstNonEmpty(cfg.PostLogoutRedirectURL, cfg.RedirectURL); redirect != "" {
		q.Set("post_logout_redirect_uri", redirect)
	}
	for k, v := range cfg.AdditionalLogoutParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Status reports the stored token state for a provider.
func (s *OAuthService) Status(ctx context.Context, providerID string) (*domain.AuthStatus, error) {
	providerID = trimID(providerID)
	if providerID == "" {
		return nil, domain.ErrProviderIDRequired
	}
	tokens, err := s.store.Load(ctx, providerID)
	if err != nil {
		return nil, err
	}

	status := &domain.AuthStatus{ProviderID: providerID, Expired: true}
	if tokens == nil {
		return status, nil
	}
	status.Expired = tokens.IsExpired(s.now())
	status.LoggedIn = !status.Expired
	status.HasRefreshToken = tokens.HasRefreshToken()
	status.ExpiresAt = tokens.ExpiresAt
	status.Scopes = tokens.Scopes
	status.Subject, status.Email = identityClaims(tokens.IDToken)
	return status, nil
}

// Tokens returns the stored token set for a provider.
func (s *OAuthService) Tokens(ctx context.Context, providerID string) (*domain.TokenSet, error) {
	providerID = trimID(providerID)
	if providerID == "" {
		return nil, domain.ErrProviderIDRequired
	}
	tokens, err := s.store.Load(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, domain.ErrNotLoggedIn
	}
	return tokens, nil
}

// FlowState reports the provider's login state.
func (s *OAuthService) FlowState(providerID string) domain.FlowState {
	return s.tracker.State(providerID)
}

func stateMatches(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// tokensFromFragment builds a token set from implicit-flow redirect parameters.
func tokensFromFragment(params map[string]string, now time.Time) *domain.TokenSet {
	tokens := &domain.TokenSet{
		AccessToken:  params["access_token"],
		TokenType:    firstNonEmpty(params["token_type"], "bearer"),
		RefreshToken: params["refresh_token"],
		IDToken:      params["id_token"],
		Scopes:       domain.SplitScope(params["scope"]),
	}
	seconds := int64(3600)
	if v, err := strconv.ParseInt(params["expires_in"], 10, 64); err == nil {
		seconds = v
	}
	tokens.ExpiresAt = domain.ExpiresAfter(now, seconds)
	return tokens
}

// identityClaims reads sub and email from an ID token without verifying it.
// The values are for display only.
func identityClaims(idToken string) (subject, email string) {
	if idToken == "" {
		return "", ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		logger.Debug("id token is not a readable JWT: %v", err)
		return "", ""
	}
	subject, _ = claims.GetSubject()
	email, _ = claims["email"].(string)
	return subject, email
}

func mergeParams(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
