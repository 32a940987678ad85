package layer

import (
	"fmt"
	"strings"
)

// SchemaError reports required attribute columns that are absent from a
// loaded layer. It is fatal: the analysis that needed the columns cannot
// produce any of its tables.
type SchemaError struct {
	Layer   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("layer %s: missing required columns: %s", e.Layer, strings.Join(e.Missing, ", "))
}

// ConfigError reports a caller or configuration defect: an undefined
// coordinate system, an overlay precondition violation, or a request naming
// a metric that does not exist. Never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
