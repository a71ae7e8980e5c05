package task

// Response is the outcome of one Request.
// Result and error are mutually exclusive: a successful response carries a
// result and no error, a failed response carries an error and no result.
type Response struct {
	taskID   string
	result   any
	errorMsg string
	failed   bool
	retry    bool
}

// Succeeded creates a successful Response for the given task.
func Succeeded(taskID string, result any) Response {
	return Response{
		taskID: taskID,
		result: result,
	}
}

// Failed creates a failed Response for the given task.
// The retry flag is passed through to the worker unchanged.
func Failed(taskID string, message string, retry bool) Response {
	return Response{
		taskID:   taskID,
		errorMsg: message,
		failed:   true,
		retry:    retry,
	}
}

// TaskID returns the ID of the task this response answers.
func (r Response) TaskID() string { return r.taskID }

// Result returns the handler result. It is nil for failed responses.
func (r Response) Result() any { return r.result }

// Error returns the error message and whether the response is a failure.
func (r Response) Error() (string, bool) { return r.errorMsg, r.failed }

// IsFailure reports whether the response carries an error.
func (r Response) IsFailure() bool { return r.failed }

// Retry reports whether the worker should consider resubmitting the task.
func (r Response) Retry() bool { return r.retry }
