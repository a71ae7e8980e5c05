package runqy

import (
	"github.com/runqy/runqy-go/application/service"
	"github.com/runqy/runqy-go/domain/task"
)

// Errors returned by the runtime and the client. Use errors.Is to match them.
var (
	// ErrConfiguration matches invalid handler registrations.
	ErrConfiguration = task.ErrConfiguration
	// ErrLoadFailed matches a load handler failure.
	ErrLoadFailed = service.ErrLoadFailed
	// ErrAlreadyStarted is returned when a runtime is started twice.
	ErrAlreadyStarted = service.ErrAlreadyStarted
	// ErrRunqy matches every client error.
	ErrRunqy = task.ErrRunqy
	// ErrAuthentication matches a rejected API key.
	ErrAuthentication = task.ErrAuthentication
	// ErrTaskNotFound matches a lookup of an unknown task.
	ErrTaskNotFound = task.ErrTaskNotFound
)

// ConfigurationError describes an invalid handler registration.
type ConfigurationError = task.ConfigurationError

// RunqyError describes a failed queue request.
type RunqyError = task.RunqyError
