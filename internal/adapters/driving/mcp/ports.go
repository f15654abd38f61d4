package mcp

import (
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// GraphQL executes queries against the Jobber API.
	GraphQL driving.GraphQLService

	// Introspection serves the cached Jobber schema.
	Introspection driving.IntrospectionService

	// Photos presigns uploads and attaches photos to visits.
	Photos driving.PhotoService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.GraphQL == nil {
		return ErrMissingGraphQLService
	}
	// Introspection and Photos are optional; their tools report
	// unavailability when invoked.
	return nil
}
