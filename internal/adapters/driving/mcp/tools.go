package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
)

// ExecuteQueryInput is the input schema for the execute_query tool.
type ExecuteQueryInput struct {
	Query         string         `json:"query" jsonschema:"the GraphQL query or mutation to execute"`
	Variables     map[string]any `json:"variables,omitempty" jsonschema:"variables for the query"`
	OperationName string         `json:"operation_name,omitempty" jsonschema:"operation name when the document has several"`
}

// ExecuteQueryOutput is the output schema for the execute_query tool.
type ExecuteQueryOutput struct {
	Data        map[string]any `json:"data"`
	WaitSeconds float64        `json:"wait_seconds,omitempty"`
	RateLimited bool           `json:"rate_limited,omitempty"`
}

// SchemaFieldsInput is the input schema for the get_schema_fields tool.
type SchemaFieldsInput struct {
	TypeName string `json:"type_name" jsonschema:"the GraphQL type to describe, e.g. Client or Quote"`
}

// SchemaFieldsOutput is the output schema for the get_schema_fields tool.
type SchemaFieldsOutput struct {
	TypeName string            `json:"type_name"`
	Fields   map[string]string `json:"fields"`
}

// ThrottleStatusOutput is the output schema for the throttle_status tool.
type ThrottleStatusOutput struct {
	Known              bool    `json:"known"`
	CurrentlyAvailable int     `json:"currently_available,omitempty"`
	MaximumAvailable   int     `json:"maximum_available,omitempty"`
	RestoreRate        int     `json:"restore_rate,omitempty"`
	Ratio              float64 `json:"ratio,omitempty"`
}

// AttachPhotosInput is the input schema for the attach_photos tool.
type AttachPhotosInput struct {
	VisitID   string   `json:"visit_id" jsonschema:"the Jobber visit to attach photos to"`
	PhotoURLs []string `json:"photo_urls" jsonschema:"URLs of already-uploaded photos"`
	Title     string   `json:"title,omitempty" jsonschema:"note title (default Photos)"`
}

// AttachPhotosOutput is the output schema for the attach_photos tool.
type AttachPhotosOutput struct {
	Data map[string]any `json:"data"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "execute_query",
		Description: "Execute a GraphQL query or mutation against the Jobber API with managed auth and rate limiting",
	}, s.handleExecuteQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_schema_fields",
		Description: "List the fields and descriptions of a Jobber GraphQL type",
	}, s.handleSchemaFields)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "throttle_status",
		Description: "Report the most recently observed Jobber API quota state",
	}, s.handleThrottleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "attach_photos",
		Description: "Attach uploaded photos to a Jobber visit as a note",
	}, s.handleAttachPhotos)
}

// handleExecuteQuery handles the execute_query tool invocation.
// A rate-limit rejection is reported as data, not an error, so agents
// can read the wait time and back off instead of failing the task.
func (s *Server) handleExecuteQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExecuteQueryInput,
) (*mcp.CallToolResult, ExecuteQueryOutput, error) {
	data, err := s.ports.GraphQL.Execute(ctx, input.Query, input.Variables, input.OperationName)
	if err != nil {
		var rle *domain.RateLimitError
		if errors.As(err, &rle) {
			return nil, ExecuteQueryOutput{
				RateLimited: true,
				WaitSeconds: rle.WaitSeconds,
			}, nil
		}
		return nil, ExecuteQueryOutput{}, err
	}

	return nil, ExecuteQueryOutput{Data: data}, nil
}

// handleSchemaFields handles the get_schema_fields tool invocation.
func (s *Server) handleSchemaFields(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SchemaFieldsInput,
) (*mcp.CallToolResult, SchemaFieldsOutput, error) {
	if s.ports.Introspection == nil {
		return nil, SchemaFieldsOutput{}, fmt.Errorf("schema introspection is not configured")
	}

	fields, err := s.ports.Introspection.FieldDescriptions(ctx, input.TypeName)
	if err != nil {
		return nil, SchemaFieldsOutput{}, err
	}

	return nil, SchemaFieldsOutput{
		TypeName: input.TypeName,
		Fields:   fields,
	}, nil
}

// handleThrottleStatus handles the throttle_status tool invocation.
func (s *Server) handleThrottleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ThrottleStatusOutput, error) {
	status := s.ports.GraphQL.ThrottleStatus()
	if status == nil {
		return nil, ThrottleStatusOutput{Known: false}, nil
	}

	return nil, ThrottleStatusOutput{
		Known:              true,
		CurrentlyAvailable: status.CurrentlyAvailable,
		MaximumAvailable:   status.MaximumAvailable,
		RestoreRate:        status.RestoreRate,
		Ratio:              status.Ratio(),
	}, nil
}

// handleAttachPhotos handles the attach_photos tool invocation.
func (s *Server) handleAttachPhotos(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AttachPhotosInput,
) (*mcp.CallToolResult, AttachPhotosOutput, error) {
	if s.ports.Photos == nil {
		return nil, AttachPhotosOutput{}, fmt.Errorf("photo service is not configured")
	}

	data, err := s.ports.Photos.AttachToVisit(ctx, input.VisitID, input.PhotoURLs, input.Title)
	if err != nil {
		return nil, AttachPhotosOutput{}, err
	}

	return nil, AttachPhotosOutput{Data: data}, nil
}
