package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/adapters/driven/config/file"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driving"
)

// fakeService is a scriptable driving.OAuthService.
type fakeService struct {
	mu sync.Mutex

	initialized []domain.ProviderConfig
	providers   []string
	statuses    map[string]*domain.AuthStatus
	tokens      map[string]*domain.TokenSet

	beginFn   func(req domain.LoginRequest) (*driving.Flow, error)
	beginReqs []domain.LoginRequest
	delivered []domain.CallbackEvent
	abandoned []string

	refreshReqs   []domain.RefreshRequest
	refreshResult *domain.LoginResult
	refreshErr    error

	loggedOut []string
	logoutErr error
}

var _ driving.OAuthService = (*fakeService)(nil)

func (f *fakeService) Initialize(_ context.Context, configs []domain.ProviderConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized = append(f.initialized, configs...)
	return nil
}

func (f *fakeService) Providers() []string { return f.providers }

func (f *fakeService) Begin(_ context.Context, req domain.LoginRequest) (*driving.Flow, error) {
	f.mu.Lock()
	f.beginReqs = append(f.beginReqs, req)
	f.mu.Unlock()
	return f.beginFn(req)
}

func (f *fakeService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	flow, err := f.Begin(ctx, req)
	if err != nil {
		return nil, err
	}
	return flow.Wait(ctx)
}

func (f *fakeService) Abandon(flow *driving.Flow) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = append(f.abandoned, flow.CorrelationID)
	return true
}

func (f *fakeService) HandleCallback(context.Context, domain.CallbackEvent) error { return nil }

func (f *fakeService) Deliver(event domain.CallbackEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, event)
	return nil
}

func (f *fakeService) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeService) Refresh(_ context.Context, req domain.RefreshRequest) (*domain.LoginResult, error) {
	f.refreshReqs = append(f.refreshReqs, req)
	return f.refreshResult, f.refreshErr
}

func (f *fakeService) Logout(_ context.Context, providerID string) error {
	f.loggedOut = append(f.loggedOut, providerID)
	return f.logoutErr
}

func (f *fakeService) Status(_ context.Context, providerID string) (*domain.AuthStatus, error) {
	if s, ok := f.statuses[providerID]; ok {
		return s, nil
	}
	return &domain.AuthStatus{ProviderID: providerID, Expired: true}, nil
}

func (f *fakeService) Tokens(_ context.Context, providerID string) (*domain.TokenSet, error) {
	if t, ok := f.tokens[providerID]; ok {
		return t, nil
	}
	return nil, domain.ErrNotLoggedIn
}

func (f *fakeService) deliveredEvents() []domain.CallbackEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CallbackEvent(nil), f.delivered...)
}

// setupCLI installs a fake service and a temp provider store, and restores
// the previous configuration when the test ends.
func setupCLI(t *testing.T) (*fakeService, *file.ProviderStore) {
	t.Helper()

	store, err := file.NewProviderStore(t.TempDir())
	require.NoError(t, err)
	svc := &fakeService{}

	previous := cliConfig
	SetConfig(&Config{Service: svc, Providers: store, CallbackPort: 8085})
	t.Cleanup(func() {
		SetConfig(previous)
		resetFlags()
	})
	return svc, store
}

// resetFlags clears flag values left over from earlier Execute calls.
func resetFlags() {
	loginScope, loginHint, loginPrompt = "", "", ""
	loginForce, loginShowResource = false, false
	loginTimeout = 0
	refreshToken = ""
	tokenIDToken, tokenJSON = false, false
	addVariant, addClientID, addIssuer, addAuthURL, addTokenURL = "", "", "", "", ""
	addEndSessionURL, addRedirectURL, addPostLogoutURL, addResourceURL = "", "", "", ""
	addResponseType, addScope, addLoginHint, addPrompt = "", "", "", ""
	addNoPKCE, addLogging, addClientSecretPrompt = false, false, false
}

// executeCommand runs the root command with args and returns combined output.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
