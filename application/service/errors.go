package service

import "errors"

// ErrLoadFailed indicates the load handler failed and no task can be served.
var ErrLoadFailed = errors.New("runqy: load handler failed")

// ErrAlreadyStarted indicates Run or RunOnce was called on a runtime that has
// already been started.
var ErrAlreadyStarted = errors.New("runqy: runtime already started")
