package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "sociallogin://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "providers",
		Name:        "providers",
		Description: "Configured identity providers and their login state",
		MIMEType:    "application/json",
	}, s.handleProvidersResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "providers/{providerId}/status",
		Name:        "provider-status",
		Description: "Stored login state for a specific provider",
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

func (s *Server) handleProvidersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	statuses, err := s.allStatuses(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, statuses)
}

func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	providerID := extractProviderID(req.Params.URI)
	if providerID == "" || !slices.Contains(s.ports.OAuth.Providers(), providerID) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status, err := s.ports.OAuth.Status(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}
	return jsonResource(req.Params.URI, statusOutput(status))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractProviderID extracts the id from sociallogin://providers/{providerId}/status.
func extractProviderID(uri string) string {
	const prefix = uriScheme + "providers/"
	const suffix = "/status"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
