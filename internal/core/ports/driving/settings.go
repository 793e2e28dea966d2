package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Set updates a single configuration key and persists it.
	Set(key string, value any) error

	// Reset unsets a key so it falls back to its default.
	Reset(key string) error

	// SetProvider configures an AI provider for a role
	// ("embedding", "llm" or "rerank").
	SetProvider(role string, provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the pipeline can be assembled from current settings.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Keys lists every settable configuration key, sorted.
	Keys() []string

	// ConfigPath returns the backing configuration file.
	ConfigPath() string
}
