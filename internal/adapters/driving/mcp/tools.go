package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/domain"
)

// ProviderInput selects a provider.
type ProviderInput struct {
	Provider string `json:"provider" jsonschema:"the configured provider id"`
}

// TokenInput is the input schema for the access_token tool.
type TokenInput struct {
	Provider string `json:"provider" jsonschema:"the configured provider id"`
	IDToken  bool   `json:"id_token,omitempty" jsonschema:"return the OIDC id token instead of the access token"`
}

// StatusOutput describes the stored session for one provider.
type StatusOutput struct {
	Provider        string   `json:"provider"`
	LoggedIn        bool     `json:"logged_in"`
	Expired         bool     `json:"expired"`
	HasRefreshToken bool     `json:"has_refresh_token"`
	ExpiresAt       string   `json:"expires_at,omitempty"`
	Scopes          []string `json:"scopes,omitempty"`
	Subject         string   `json:"subject,omitempty"`
	Email           string   `json:"email,omitempty"`
}

// ProvidersOutput is the output schema for the providers tool.
type ProvidersOutput struct {
	Providers []StatusOutput `json:"providers"`
	Count     int            `json:"count"`
}

// TokenOutput is the output schema for the access_token and refresh tools.
type TokenOutput struct {
	Provider  string `json:"provider"`
	Token     string `json:"token"`
	TokenType string `json:"token_type,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// LogoutOutput is the output schema for the logout tool.
type LogoutOutput struct {
	Provider  string `json:"provider"`
	LoggedOut bool   `json:"logged_out"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "providers",
		Description: "List configured identity providers and their login state",
	}, s.handleProviders)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Show the stored login state for a provider",
	}, s.handleStatus)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "access_token",
		Description: "Return the stored access token (or id token) for a provider",
	}, s.handleAccessToken)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "refresh",
		Description: "Refresh the stored tokens for a provider",
	}, s.handleRefresh)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "logout",
		Description: "Delete the stored tokens for a provider",
	}, s.handleLogout)
}

func (s *Server) handleProviders(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ProvidersOutput, error) {
	statuses, err := s.allStatuses(ctx)
	if err != nil {
		return nil, ProvidersOutput{}, err
	}
	return nil, ProvidersOutput{Providers: statuses, Count: len(statuses)}, nil
}

func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProviderInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if input.Provider == "" {
		return nil, StatusOutput{}, domain.ErrProviderIDRequired
	}
	status, err := s.ports.OAuth.Status(ctx, input.Provider)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, statusOutput(status), nil
}

func (s *Server) handleAccessToken(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TokenInput,
) (*mcp.CallToolResult, TokenOutput, error) {
	if input.Provider == "" {
		return nil, TokenOutput{}, domain.ErrProviderIDRequired
	}
	tokens, err := s.ports.OAuth.Tokens(ctx, input.Provider)
	if err != nil {
		return nil, TokenOutput{}, err
	}

	out := tokenOutput(input.Provider, tokens)
	if input.IDToken {
		if tokens.IDToken == "" {
			return nil, TokenOutput{}, fmt.Errorf("provider %s has no id token", input.Provider)
		}
		out.Token = tokens.IDToken
		out.TokenType = ""
	}
	return nil, out, nil
}

func (s *Server) handleRefresh(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProviderInput,
) (*mcp.CallToolResult, TokenOutput, error) {
	if input.Provider == "" {
		return nil, TokenOutput{}, domain.ErrProviderIDRequired
	}
	result, err := s.ports.OAuth.Refresh(ctx, domain.RefreshRequest{ProviderID: input.Provider})
	if err != nil {
		return nil, TokenOutput{}, err
	}
	return nil, tokenOutput(input.Provider, &result.Tokens), nil
}

func (s *Server) handleLogout(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProviderInput,
) (*mcp.CallToolResult, LogoutOutput, error) {
	if input.Provider == "" {
		return nil, LogoutOutput{}, domain.ErrProviderIDRequired
	}
	if err := s.ports.OAuth.Logout(ctx, input.Provider); err != nil {
		return nil, LogoutOutput{}, err
	}
	return nil, LogoutOutput{Provider: input.Provider, LoggedOut: true}, nil
}

// allStatuses returns the status of every registered provider.
func (s *Server) allStatuses(ctx context.Context) ([]StatusOutput, error) {
	ids := s.ports.OAuth.Providers()
	out := make([]StatusOutput, 0, len(ids))
	for _, id := range ids {
		status, err := s.ports.OAuth.Status(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("status for %s: %w", id, err)
		}
		out = append(out, statusOutput(status))
	}
	return out, nil
}

func statusOutput(status *domain.AuthStatus) StatusOutput {
	return StatusOutput{
		Provider:        status.ProviderID,
		LoggedIn:        status.LoggedIn,
		Expired:         status.Expired,
		HasRefreshToken: status.HasRefreshToken,
		ExpiresAt:       formatTime(status.ExpiresAt),
		Scopes:          status.Scopes,
		Subject:         status.Subject,
		Email:           status.Email,
	}
}

func tokenOutput(providerID string, tokens *domain.TokenSet) TokenOutput {
	return TokenOutput{
		Provider:  providerID,
		Token:     tokens.AccessToken,
		TokenType: tokens.TokenType,
		ExpiresAt: formatTime(tokens.ExpiresAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
