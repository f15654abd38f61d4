package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Jobber resources.
	uriScheme = "jobber://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the introspected schema.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "schema",
		Name:        "schema",
		Description: "The introspected Jobber GraphQL schema (cached)",
		MIMEType:    "application/json",
	}, s.handleSchemaResource)

	// Static resource for the current quota state.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "throttle",
		Name:        "throttle",
		Description: "The most recently observed Jobber API quota state",
		MIMEType:    "application/json",
	}, s.handleThrottleResource)
}

// handleSchemaResource returns the cached (or freshly fetched) schema.
func (s *Server) handleSchemaResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Introspection == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	schema, err := s.ports.Introspection.Schema(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("fetching schema: %w", err)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling schema: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleThrottleResource returns the last observed throttle status.
func (s *Server) handleThrottleResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status := s.ports.GraphQL.ThrottleStatus()

	text := "null"
	if status != nil {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshalling throttle status: %w", err)
		}
		text = string(data)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		}},
	}, nil
}
