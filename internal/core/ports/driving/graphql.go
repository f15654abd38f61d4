package driving

import (
	"context"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
)

// GraphQLService executes queries against the Jobber GraphQL API.
type GraphQLService interface {
	// Execute sends the query with the given variables and optional
	// operation name and returns the data payload.
	//
	// Failure modes, all typed (see domain):
	//   - NetworkError: transport failure, not retried
	//   - AuthenticationError: token rejected twice (one refresh+retry
	//     happens internally)
	//   - RateLimitError: remaining quota below the threshold, carries
	//     the wait time; the request itself succeeded
	//   - GraphQLError: provider-level query errors
	Execute(ctx context.Context, query string, variables map[string]any, operationName string) (map[string]any, error)

	// ThrottleStatus returns the most recently observed quota state,
	// or nil if no request has completed yet.
	ThrottleStatus() *domain.ThrottleStatus
}
