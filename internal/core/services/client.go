package services

import (
	"context"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driven"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driving"
)

// Ensure Client implements the driving interface.
var _ driving.GraphQLService = (*Client)(nil)

// Client is the composition root: it wires a secret store into a token
// manager and the token manager into an executor. All request and
// credential logic lives in those two; Client only delegates.
type Client struct {
	manager  *TokenManager
	executor *GraphQLExecutor
}

// NewClient builds a client from a secret store.
func NewClient(
	ctx context.Context,
	secrets driven.SecretStore,
	managerOpts []TokenManagerOption,
	executorOpts []ExecutorOption,
) (*Client, error) {
	manager, err := NewTokenManager(ctx, secrets, managerOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		manager:  manager,
		executor: NewGraphQLExecutor(manager, executorOpts...),
	}, nil
}

// NewClientFromParts wires an existing manager and executor. Used when
// the caller needs access to the parts, e.g. the CLI's auth commands.
func NewClientFromParts(manager *TokenManager, executor *GraphQLExecutor) *Client {
	return &Client{manager: manager, executor: executor}
}

// Execute sends a GraphQL query. See driving.GraphQLService for the
// failure modes.
func (c *Client) Execute(
	ctx context.Context, query string, variables map[string]any, operationName string,
) (map[string]any, error) {
	return c.executor.Execute(ctx, query, variables, operationName)
}

// ThrottleStatus returns the most recently observed quota state.
func (c *Client) ThrottleStatus() *domain.ThrottleStatus {
	return c.executor.ThrottleStatus()
}

// TokenManager returns the underlying token manager.
func (c *Client) TokenManager() *TokenManager {
	return c.manager
}

// Close stops the manager's background refresh timer.
func (c *Client) Close() {
	c.manager.Close()
}
