package task

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every client error matches ErrRunqy; authentication and
// lookup failures additionally match their own sentinel.
var (
	ErrConfiguration  = errors.New("runqy: configuration error")
	ErrRunqy          = errors.New("runqy: request failed")
	ErrAuthentication = errors.New("runqy: authentication failed")
	ErrTaskNotFound   = errors.New("runqy: task not found")
)

// ConfigurationError reports an invalid handler registration.
type ConfigurationError struct {
	Reason string
}

// NewConfigurationError creates a ConfigurationError with a formatted reason.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// RunqyError is returned by the queue client for any failed request.
type RunqyError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Body is the raw response body, if any.
	Body string

	kind    error
	message string
	err     error
}

// NewAuthenticationError creates an error for a rejected API key.
func NewAuthenticationError(status int, body string) *RunqyError {
	return &RunqyError{
		StatusCode: status,
		Body:       body,
		kind:       ErrAuthentication,
		message:    "authentication failed: " + body,
	}
}

// NewTaskNotFoundError creates an error for an unknown task.
func NewTaskNotFoundError(body string) *RunqyError {
	return &RunqyError{
		StatusCode: 404,
		Body:       body,
		kind:       ErrTaskNotFound,
		message:    "task not found: " + body,
	}
}

// NewStatusError creates an error for any other non-2xx response.
func NewStatusError(status int, body string) *RunqyError {
	return &RunqyError{
		StatusCode: status,
		Body:       body,
		message:    fmt.Sprintf("HTTP %d: %s", status, body),
	}
}

// NewTransportError creates an error for a request that never got a response.
func NewTransportError(err error) *RunqyError {
	return &RunqyError{
		message: "connection error: " + err.Error(),
		err:     err,
	}
}

// NewRequestError creates an error for a request that could not be built,
// such as a payload that cannot be encoded as JSON.
func NewRequestError(err error) *RunqyError {
	return &RunqyError{
		message: "invalid request: " + err.Error(),
		err:     err,
	}
}

// NewDecodeError creates an error for a response body that could not be parsed.
func NewDecodeError(status int, body string, err error) *RunqyError {
	return &RunqyError{
		StatusCode: status,
		Body:       body,
		message:    "invalid response body: " + err.Error(),
		err:        err,
	}
}

func (e *RunqyError) Error() string {
	return e.message
}

// Unwrap returns the underlying transport or decode error.
func (e *RunqyError) Unwrap() error {
	return e.err
}

// Is reports whether target is ErrRunqy or the error's specific kind.
func (e *RunqyError) Is(target error) bool {
	if target == ErrRunqy {
		return true
	}
	return e.kind != nil && target == e.kind
}
