package driving

import "github.com/custodia-labs/licita-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set parses and stores one setting by its dotted key.
	Set(key, value string) error

	// Keys returns every supported setting key in display order.
	Keys() []string

	// Validate checks that the current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateOracleConfig validates the current oracle configuration by pinging the provider.
	ValidateOracleConfig() error
}
