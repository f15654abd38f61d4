package driving

import (
	"context"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
)

// IntrospectionService fetches and caches the Jobber GraphQL schema.
type IntrospectionService interface {
	// Schema returns the introspected schema, serving from the cache
	// when useCache is true and a cached copy exists.
	Schema(ctx context.Context, useCache bool) (map[string]any, error)

	// FieldDescriptions returns field name -> description for the named
	// type, for agent context.
	FieldDescriptions(ctx context.Context, typeName string) (map[string]string, error)

	// Diff compares the cached schema against a fresh introspection and
	// reports added/removed types and fields.
	Diff(ctx context.Context) (domain.SchemaDiff, error)

	// ClearCache removes the cached schema. Returns true if a cached
	// schema existed.
	ClearCache(ctx context.Context) (bool, error)
}
