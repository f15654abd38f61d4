package driven

// ConfigStore provides access to application configuration.
// Keys use dot notation, e.g. "api.version" or "doppler.project".
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns "" if the key is absent or not a string.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	GetInt(key string) int

	// GetFloat retrieves a floating-point configuration value.
	GetFloat(key string) float64

	// GetBool retrieves a boolean configuration value.
	GetBool(key string) bool

	// Set stores a configuration value and persists immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load reloads configuration from the backing store.
	Load() error

	// Path returns the location of the backing store, for diagnostics.
	Path() string
}
