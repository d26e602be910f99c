package driven

// ConfigStore provides flat dotted-key access to application configuration,
// e.g. "llm.api_key". Implementations own persistence and type conversion.
type ConfigStore interface {
	// Get retrieves a value by key. Environment overrides take precedence
	// over stored values.
	Get(key string) (any, bool)

	// GetString returns "" when the key is absent or not a string.
	GetString(key string) string

	// GetInt returns 0 when the key is absent or not numeric.
	GetInt(key string) int

	// GetBool returns false when the key is absent or not a boolean.
	GetBool(key string) bool

	// GetStringSlice returns nil when the key is absent or not a list.
	GetStringSlice(key string) []string

	// Set stores and persists a value. A failed write leaves the
	// previous value in place.
	Set(key string, value any) error

	// Keys returns the stored keys in sorted order.
	Keys() []string

	// Save persists the current configuration.
	Save() error

	// Load replaces the in-memory configuration with the persisted one.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
