// Package runqy is the Go SDK for runqy task processes and the runqy queue API.
//
// A task process registers a task handler (and optionally a load handler),
// then hands control to the runtime. The runtime speaks newline-delimited
// JSON with the runqy worker over stdin and stdout:
//
//	func main() {
//	    rt := runqy.NewRuntime()
//	    _ = rt.SetLoadHandler(func(ctx context.Context) (any, error) {
//	        return loadModel("weights.bin")
//	    })
//	    _ = rt.SetTaskHandler(runqy.StatefulHandlerFunc(
//	        func(ctx context.Context, payload map[string]any, state any) (any, error) {
//	            return state.(*Model).Predict(payload["input"])
//	        },
//	    ))
//	    runqy.Main(rt)
//	}
//
// Programs that submit work use a Client:
//
//	client := runqy.NewClient("http://localhost:3000", apiKey)
//	info, err := client.Enqueue(ctx, "inference_default", map[string]any{"input": "hello"})
//	...
//	info, err = client.GetTask(ctx, info.ID())
package runqy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/runqy/runqy-go/application/service"
	"github.com/runqy/runqy-go/domain/task"
	runqylog "github.com/runqy/runqy-go/internal/log"
)

// Runtime runs the load, ready and serve lifecycle of a task process.
type Runtime = service.Runtime

// RuntimeOption configures a Runtime.
type RuntimeOption = service.RuntimeOption

// Handler executes a single task.
type Handler = service.Handler

// HandlerFunc is a task handler that only needs the payload.
type HandlerFunc = service.HandlerFunc

// StatefulHandlerFunc is a task handler that also receives the load state.
type StatefulHandlerFunc = service.StatefulHandlerFunc

// LoadFunc initialises the state shared by all tasks.
type LoadFunc = service.LoadFunc

// Phase is a lifecycle phase of a Runtime.
type Phase = service.Phase

// Lifecycle phases.
const (
	PhaseUninitialized = service.PhaseUninitialized
	PhaseLoading       = service.PhaseLoading
	PhaseReady         = service.PhaseReady
	PhaseServing       = service.PhaseServing
	PhaseTerminated    = service.PhaseTerminated
)

// NewRuntime creates a Runtime reading stdin and writing stdout.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	return service.NewRuntime(opts...)
}

// WithInput sets the stream task requests are read from.
func WithInput(r io.Reader) RuntimeOption { return service.WithInput(r) }

// WithOutput sets the stream responses are written to.
func WithOutput(w io.Writer) RuntimeOption { return service.WithOutput(w) }

// WithMaxLineBytes sets the largest accepted request line.
func WithMaxLineBytes(n int) RuntimeOption { return service.WithMaxLineBytes(n) }

// WithRuntimeLogger sets the runtime's logger. It must not write to stdout.
func WithRuntimeLogger(l *slog.Logger) RuntimeOption { return service.WithRuntimeLogger(l) }

// Retryable marks a handler error as transient. The worker is told it may
// resubmit the task.
func Retryable(err error) error { return task.Retryable(err) }

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool { return task.IsRetryable(err) }

// TaskID returns the ID of the task being handled, from the context passed
// to a task handler.
func TaskID(ctx context.Context) string { return runqylog.TaskID(ctx) }

// Main runs rt until its input ends, then exits the process. Exit status is 0
// on a clean end of input and 1 on any error, including a failed load.
// SIGINT and SIGTERM stop the runtime between tasks.
func Main(rt *Runtime) {
	os.Exit(run(rt, (*Runtime).Run))
}

// MainOnce runs rt for a single task, then exits the process.
func MainOnce(rt *Runtime) {
	os.Exit(run(rt, (*Runtime).RunOnce))
}

func run(rt *Runtime, serve func(*Runtime, context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return exitCode(serve(rt, ctx), os.Stderr)
}

// exitCode maps the result of a run to a process exit status.
func exitCode(err error, stderr io.Writer) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	_, _ = fmt.Fprintf(stderr, "runqy: %v\n", err)
	return 1
}
