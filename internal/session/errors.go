// File: internal/session/errors.go
package session

import "fmt"

// ConfigError reports invalid usage or configuration: bad paths, bad
// patterns, non-positive timings, out-of-range indices, unsupported auth
// fields. It is always raised before any browser resource is acquired.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

// NewConfigError builds a ConfigError from a format string.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// RuntimeError reports a failure during or immediately after driver
// interaction: launch/connect failures, malformed captured payloads,
// write or round-trip validation failures.
type RuntimeError struct {
	msg string
	err error
}

func (e *RuntimeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *RuntimeError) Unwrap() error { return e.err }

// NewRuntimeError builds a RuntimeError from a format string.
func NewRuntimeError(format string, args ...any) *RuntimeError {
	return &RuntimeError{msg: fmt.Sprintf(format, args...)}
}

// WrapRuntimeError builds a RuntimeError that wraps an underlying cause.
func WrapRuntimeError(err error, format string, args ...any) *RuntimeError {
	return &RuntimeError{msg: fmt.Sprintf(format, args...), err: err}
}
