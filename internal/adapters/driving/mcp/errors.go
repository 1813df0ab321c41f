// Package mcp exposes stored provider sessions to MCP (Model Context Protocol) clients.
// Assistants can inspect login state, read tokens, refresh, and log out.
package mcp

import "errors"

// ErrMissingOAuthService is returned when the OAuth service is not provided.
var ErrMissingOAuthService = errors.New("mcp: oauth service is required")
