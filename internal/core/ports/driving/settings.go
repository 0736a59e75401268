package driving

import "github.com/custodia-labs/docstore/internal/core/domain"

// SettingsService manages docstore settings.
type SettingsService interface {
	// Get retrieves current settings with defaults applied.
	Get() (*domain.Settings, error)

	// Set validates and persists a single setting by key.
	Set(key, value string) error

	// Keys lists the recognised setting keys.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
