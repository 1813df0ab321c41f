package mcp

import (
	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// OAuth provides status, token, refresh, and logout operations.
	OAuth driving.OAuthService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.OAuth == nil {
		return ErrMissingOAuthService
	}
	return nil
}
