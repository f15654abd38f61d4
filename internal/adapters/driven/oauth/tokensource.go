// Package oauth bridges the token manager to oauth2-based HTTP clients.
package oauth

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/jobber-cli/internal/core/ports/driven"
)

// TokenSourceAdapter adapts the TokenProvider port to oauth2.TokenSource.
// This lets any oauth2-aware client (oauth2.NewClient, SDKs taking a
// TokenSource) ride on our refresh and single-flight machinery instead
// of running its own.
type TokenSourceAdapter struct {
	provider driven.TokenProvider
	ctx      context.Context
}

// NewTokenSource creates an oauth2.TokenSource from a TokenProvider.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return &TokenSourceAdapter{
		provider: provider,
		ctx:      ctx,
	}
}

// Token implements oauth2.TokenSource. Called by oauth2 clients when
// they need an access token; freshness is the provider's problem.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	accessToken, err := t.provider.GetToken(t.ctx)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}
