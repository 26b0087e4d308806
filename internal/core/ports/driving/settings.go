package driving

import "github.com/custodia-labs/pagewise/internal/core/domain"

// SettingsService resolves effective settings from configuration and environment.
type SettingsService interface {
	// Load returns the effective settings without validating them.
	Load() domain.Settings

	// Resolve returns the effective settings and fails with a
	// ConfigurationError if any required value is missing or invalid.
	Resolve() (domain.Settings, error)

	// Set persists a configuration key.
	Set(key, value string) error

	// Path returns the configuration file path.
	Path() string
}
