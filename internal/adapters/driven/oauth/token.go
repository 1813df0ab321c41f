package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/logger"
)

const (
	defaultTokenType = "bearer"
	defaultExpiresIn = 3600
)

// tokenResponse is the RFC 6749 section 5.1 success body.
type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    expiresIn `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	IDToken      string    `json:"id_token"`
	Scope        string    `json:"scope"`
}

// expiresIn accepts a JSON number or a numeric string. Anything else is
// treated as absent so the default lifetime applies.
type expiresIn struct {
	seconds int64
	set     bool
}

func (e *expiresIn) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			return nil
		}
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil
	}
	switch {
	case math.IsNaN(n):
		return nil
	case n >= math.MaxInt64:
		e.seconds = math.MaxInt64
	case n <= math.MinInt64:
		e.seconds = math.MinInt64
	default:
		e.seconds = int64(n)
	}
	e.set = true
	return nil
}

// ExchangeCode redeems an authorization code at the token endpoint.
func (c *Client) ExchangeCode(ctx context.Context, req domain.CodeExchange) (*domain.TokenSet, error) {
	form := extraParams(req.Params)
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", req.ClientID)
	form.Set("code", req.Code)
	form.Set("redirect_uri", req.RedirectURL)
	if req.CodeVerifier != "" {
		form.Set("code_verifier", req.CodeVerifier)
	}

	return c.postToken(ctx, req.TokenURL, form, domain.ErrExchangeFailed, "")
}

// Refresh redeems a refresh token at the token endpoint.
func (c *Client) Refresh(ctx context.Context, req domain.RefreshGrant) (*domain.TokenSet, error) {
	form := extraParams(req.Params)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", req.RefreshToken)
	form.Set("client_id", req.ClientID)

	return c.postToken(ctx, req.TokenURL, form, domain.ErrRefreshFailed, req.RefreshToken)
}

func extraParams(params map[string]string) url.Values {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	return form
}

func (c *Client) postToken(
	ctx context.Context,
	tokenURL string,
	form url.Values,
	kind error,
	previousRefresh string,
) (*domain.TokenSet, error) {
	fail := func(status int, body []byte, err error) error {
		return &domain.TokenEndpointError{Kind: kind, StatusCode: status, Body: string(body), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fail(0, nil, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(0, nil, fmt.Errorf("token request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fail(resp.StatusCode, nil, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Debug("token endpoint %s returned %d", req.URL.Host, resp.StatusCode)
		return nil, fail(resp.StatusCode, body, nil)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fail(resp.StatusCode, body, fmt.Errorf("decode token response: %w", err))
	}
	if tr.AccessToken == "" {
		return nil, fail(resp.StatusCode, body, errors.New("response has no access_token"))
	}

	return tr.tokenSet(c.now(), previousRefresh), nil
}

func (tr tokenResponse) tokenSet(now time.Time, previousRefresh string) *domain.TokenSet {
	tokens := &domain.TokenSet{
		AccessToken:  tr.AccessToken,
		TokenType:    tr.TokenType,
		RefreshToken: tr.RefreshToken,
		IDToken:      tr.IDToken,
		Scopes:       domain.SplitScope(tr.Scope),
	}
	if tokens.TokenType == "" {
		tokens.TokenType = defaultTokenType
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = previousRefresh
	}
	seconds := int64(defaultExpiresIn)
	if tr.ExpiresIn.set {
		seconds = tr.ExpiresIn.seconds
	}
	tokens.ExpiresAt = domain.ExpiresAfter(now, seconds)
	return tokens
}
