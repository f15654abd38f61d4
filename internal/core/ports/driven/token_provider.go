package driven

import "context"

// TokenProvider provides access tokens for authenticated API calls.
// Implementations handle proactive and reactive refresh transparently.
type TokenProvider interface {
	// GetToken returns a currently valid access token. If the current
	// token is expired or inside the refresh buffer, it is refreshed
	// before returning; concurrent callers share a single refresh.
	GetToken(ctx context.Context) (string, error)

	// RefreshOnUnauthorized forces a refresh after the remote API
	// rejected the token, even if it looked fresh locally (clock skew,
	// server-side revocation). Returns the new access token. The caller
	// retries the original request at most once with the result.
	RefreshOnUnauthorized(ctx context.Context) (string, error)
}
