package driving

import (
	"context"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
)

// TokenService exposes the credential lifecycle to the CLI surface.
type TokenService interface {
	// Token returns a currently valid access token.
	Token(ctx context.Context) (string, error)

	// ForceRefresh refreshes the token pair regardless of local state.
	ForceRefresh(ctx context.Context) (string, error)

	// Current returns the current pair and its lifecycle state.
	Current() (domain.TokenPair, domain.TokenState)
}
