package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroStep is returned when the step size is zero or not a number.
	ErrZeroStep = errors.New("engine: step size must be non-zero")
	// ErrEmptyGeometry is returned when the well has no hole or no string sections.
	ErrEmptyGeometry = errors.New("engine: geometry needs hole and string sections")
	// ErrInvalidInput is returned for out-of-range trip parameters.
	ErrInvalidInput = errors.New("engine: invalid input")
)

// ConfigError reports a trip configuration problem found before the step
// loop starts. Field names the offending input.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(field string, err error, format string, args ...any) *ConfigError {
	if format != "" {
		err = fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
	}
	return &ConfigError{Field: field, Err: err}
}
