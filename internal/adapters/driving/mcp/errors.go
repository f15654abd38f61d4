// Package mcp provides an MCP (Model Context Protocol) server adapter for Jobber.
// It enables AI assistants like Claude to query the Jobber GraphQL API with
// managed credentials and rate limiting.
package mcp

import "errors"

// ErrMissingGraphQLService is returned when the GraphQL service is not provided.
var ErrMissingGraphQLService = errors.New("mcp: graphql service is required")
