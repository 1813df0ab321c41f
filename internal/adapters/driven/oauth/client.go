// Package oauth talks HTTP to identity providers: OIDC discovery, the token
// endpoint, and the post-login resource endpoint.
package oauth

import (
	"net/http"
	"time"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driven"
)

// maxBodySize bounds every provider response read into memory.
const maxBodySize = 1 << 20

// Client implements the identity-provider driven ports over HTTP.
type Client struct {
	http *http.Client
	now  func() time.Time
}

// Verify interface compliance.
var (
	_ driven.MetadataFetcher = (*Client)(nil)
	_ driven.TokenEndpoint   = (*Client)(nil)
	_ driven.ResourceFetcher = (*Client)(nil)
)

// NewClient creates a Client. A nil httpClient uses a client with a 30 second timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{http: httpClient, now: time.Now}
}
