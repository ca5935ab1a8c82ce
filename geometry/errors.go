package geometry

import "fmt"

// ConfigError reports a cache configuration that cannot be simulated.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func newConfigError(field string, value any, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

// NewConfigError creates a ConfigError for configuration checks that live
// outside this package.
func NewConfigError(field string, value any, reason string) *ConfigError {
	return newConfigError(field, value, reason)
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}
