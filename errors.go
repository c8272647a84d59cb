package elastiq

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of configuration failure.
type ErrorCode string

const (
	ErrNoClient          ErrorCode = "NO_CLIENT"
	ErrNoResolver        ErrorCode = "NO_RESOLVER"
	ErrUnknownConnection ErrorCode = "UNKNOWN_CONNECTION"
	ErrNoCacheStore      ErrorCode = "NO_CACHE_STORE"
)

// ConfigError reports a misconfigured builder, connection manager or cache
// setup. Configuration errors are never retried; they surface immediately to
// the caller.
type ConfigError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func newConfigError(code ErrorCode, format string, args ...interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// BackendError wraps a failure reported by Elasticsearch itself, either a
// transport error or a non-2xx response. The payload is passed through
// unmodified; elastiq does not interpret or retry backend failures.
type BackendError struct {
	Operation string
	Status    string
	Payload   interface{}
	Err       error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s failed: [%s] %v", e.Operation, e.Status, e.Payload)
}

// Unwrap exposes the underlying transport error, if any.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsBackendError reports whether err is (or wraps) a BackendError.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
