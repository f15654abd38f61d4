package driven

import "context"

// SecretStore is an opaque key/value interface to an external secret
// store. Implementations may be slow (subprocess or network call);
// every call takes a context and honours its deadline.
//
// Load failures surface as domain.ConfigurationError, Save failures as
// wrapped infrastructure errors. Neither is ever silently ignored.
type SecretStore interface {
	// Load fetches the named secrets. All requested keys must be
	// present; a missing key is an error, never an empty value.
	Load(ctx context.Context, keys ...string) (map[string]string, error)

	// Save writes the given secrets back to the store.
	Save(ctx context.Context, secrets map[string]string) error
}
