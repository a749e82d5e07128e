package engine

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid tracker configuration.
//
// Config errors are detected before any source connects. Field names the
// offending setting; Hint, when set, shows a valid alternative.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Field is the setting that failed validation, e.g. "report".
	Field string

	// Reason is a human-readable description.
	Reason string

	// Hint suggests a corrected invocation or value.
	Hint string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeMissingDependency indicates a setting that requires another.
	ErrCodeMissingDependency ConfigErrorCode = "MISSING_DEPENDENCY"

	// ErrCodeOutOfRange indicates a numeric setting outside its bounds.
	ErrCodeOutOfRange ConfigErrorCode = "OUT_OF_RANGE"

	// ErrCodeUnknownValue indicates an unrecognized enumerated value.
	ErrCodeUnknownValue ConfigErrorCode = "UNKNOWN_VALUE"

	// ErrCodeConflict indicates mutually exclusive settings.
	ErrCodeConflict ConfigErrorCode = "CONFLICT"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("%s: invalid %s: %s", e.Code, e.Field, e.Reason)
}

// IsConfigError returns true if err is or wraps a *ConfigError.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// AsConfigError extracts the *ConfigError from err, if any.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// NewDependencyError creates a ConfigError for a setting that needs another.
func NewDependencyError(field, requires, hint string) *ConfigError {
	return &ConfigError{
		Code:   ErrCodeMissingDependency,
		Field:  field,
		Reason: fmt.Sprintf("requires %s", requires),
		Hint:   hint,
	}
}

// NewEmptyKeyError creates a ConfigError for a key setting given as "".
func NewEmptyKeyError(field string) *ConfigError {
	return &ConfigError{
		Code:   ErrCodeUnknownValue,
		Field:  field,
		Reason: "key must not be empty",
		Hint:   "tracker track ws://a ws://b --align-by phase --round-end END",
	}
}

// NewRangeError creates a ConfigError for an out-of-range number.
func NewRangeError(field string, value any, bound string) *ConfigError {
	return &ConfigError{
		Code:   ErrCodeOutOfRange,
		Field:  field,
		Reason: fmt.Sprintf("%v is out of range (%s)", value, bound),
	}
}
