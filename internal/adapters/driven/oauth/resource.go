package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

// FetchResource GETs req.URL with the access token as a Bearer credential.
// Non-JSON bodies are returned as a JSON string.
func (c *Client) FetchResource(ctx context.Context, req domain.ResourceRequest) (json.RawMessage, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: req.AccessToken,
		TokenType:   "Bearer",
	}))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrResourceFetchFailed, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrResourceFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrResourceFetchFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrResourceFetchFailed, resp.StatusCode, body)
	}

	if json.Valid(body) {
		return json.RawMessage(body), nil
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrResourceFetchFailed, err)
	}
	return quoted, nil
}
