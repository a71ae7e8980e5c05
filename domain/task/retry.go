package task

import "errors"

type retryableError struct {
	err error
}

// Retryable marks a handler error so the response tells the worker the task
// may be resubmitted. Retryable(nil) returns nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

// IsRetryable reports whether err, or any error it wraps, was marked with Retryable.
func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}
