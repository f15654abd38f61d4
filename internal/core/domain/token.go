package domain

import "time"

// DefaultExpiresIn is substituted when the token endpoint omits the
// expires_in field. Documented provider quirk.
const DefaultExpiresIn = 3600 * time.Second

// TokenState describes where a TokenPair sits in its lifetime.
type TokenState int

const (
	// TokenFresh means the access token is valid and not close to expiry.
	TokenFresh TokenState = iota
	// TokenNearExpiry means the token is inside the refresh buffer.
	TokenNearExpiry
	// TokenExpired means the token must not be used.
	TokenExpired
)

func (s TokenState) String() string {
	switch s {
	case TokenFresh:
		return "fresh"
	case TokenNearExpiry:
		return "near_expiry"
	case TokenExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// TokenPair is the current OAuth access/refresh token pair.
//
// A TokenPair is immutable once constructed: the token manager replaces
// the whole value on refresh, never mutates fields in place, so readers
// can never observe a half-updated pair.
type TokenPair struct {
	// AccessToken is the opaque bearer string attached to every request.
	AccessToken string
	// RefreshToken is used only to obtain a new access token. Providers
	// may or may not rotate it on each refresh; both modes are tolerated.
	RefreshToken string
	// ExpiresAt is the absolute instant after which AccessToken must not
	// be used.
	ExpiresAt time.Time
}

// ExpiresIn returns the remaining lifetime at now, floored at zero.
func (p TokenPair) ExpiresIn(now time.Time) time.Duration {
	d := p.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// IsExpired returns true once now has passed ExpiresAt.
func (p TokenPair) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// State classifies the pair relative to now and the refresh buffer.
func (p TokenPair) State(now time.Time, buffer time.Duration) TokenState {
	if p.IsExpired(now) {
		return TokenExpired
	}
	if p.ExpiresIn(now) < buffer {
		return TokenNearExpiry
	}
	return TokenFresh
}
