package driven

// ConfigStore provides access to application configuration.
// Keys use dot notation matching TOML tables, e.g. "index.name".
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString returns "" when the key is absent or not a string.
	GetString(key string) string

	// GetInt returns 0 when the key is absent or not an integer.
	GetInt(key string) int

	// GetBool returns false when the key is absent or not a boolean.
	GetBool(key string) bool

	// Keys returns every stored key, sorted.
	Keys() []string

	// Set stores a configuration value and persists it immediately.
	Set(key string, value any) error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
