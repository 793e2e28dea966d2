package driven

// ConfigStore holds flat, dot-separated configuration keys such as
// "pipeline.chunk_size". Writes persist immediately.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// GetString returns "" when the key is unset or not a string.
	GetString(key string) string

	// GetInt returns 0 when the key is unset or not an integer.
	GetInt(key string) int

	// GetStringSlice returns nil when the key is unset or not a list.
	GetStringSlice(key string) []string

	Set(key string, value any) error

	// Delete unsets a key so readers fall back to the default.
	Delete(key string) error

	// Path returns the configuration file path.
	Path() string
}
