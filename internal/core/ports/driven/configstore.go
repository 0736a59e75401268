package driven

// ConfigStore provides access to docstore configuration.
// Keys are dot-separated ("storage.data_dir"). Typed getters return the
// zero value when a key is missing or holds another type.
type ConfigStore interface {
	// Get retrieves a raw value and whether the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string value.
	GetString(key string) string

	// GetInt retrieves an integer value.
	GetInt(key string) int

	// GetFloat retrieves a floating point value. Integers are converted.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value.
	GetBool(key string) bool

	// Set stores a value in memory. Call Save to persist it.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
