package driven

import (
	"context"
	"time"
)

// SchemaStore persists the introspected GraphQL schema between runs so
// agents do not pay the (expensive) introspection query on every start.
type SchemaStore interface {
	// Get returns the cached schema JSON and when it was fetched.
	// Returns domain.ErrSchemaNotCached when the cache is empty.
	Get(ctx context.Context) (payload []byte, fetchedAt time.Time, err error)

	// Put replaces the cached schema.
	Put(ctx context.Context, payload []byte) error

	// Clear removes the cached schema. Returns true if a cached schema
	// was actually removed.
	Clear(ctx context.Context) (bool, error)
}
