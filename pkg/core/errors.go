package core

import (
	"errors"
	"fmt"
)

// ErrRenderCancelled reports that a render pass stopped before every tile finished.
// It is a cooperative signal, not a failure: the frame buffer is partial.
var ErrRenderCancelled = errors.New("render cancelled")

// ConfigurationError reports an invalid authoring parameter
type ConfigurationError struct {
	Op     string // Authoring call that rejected the value, e.g. "add_sphere"
	Field  string // Offending parameter
	Value  any    // Rejected value
	Reason string // Constraint that was violated
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid %s %v: %s", e.Op, e.Field, e.Value, e.Reason)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(op, field string, value any, reason string) *ConfigurationError {
	return &ConfigurationError{Op: op, Field: field, Value: value, Reason: reason}
}

// ResourceError reports a named asset that is missing or cannot be decoded
type ResourceError struct {
	Asset string
	Err   error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %q unavailable: %v", e.Asset, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
