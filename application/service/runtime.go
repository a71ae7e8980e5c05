package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/runqy/runqy-go/domain/task"
	"github.com/runqy/runqy-go/infrastructure/protocol"
	runqylog "github.com/runqy/runqy-go/internal/log"
)

// LoadFunc initialises shared state once before the runtime reports ready.
// The returned value is passed to every stateful task handler.
type LoadFunc func(ctx context.Context) (any, error)

// Handler executes a single task.
type Handler interface {
	Handle(ctx context.Context, payload map[string]any, state any) (any, error)
}

// HandlerFunc adapts a function that only needs the task payload.
type HandlerFunc func(ctx context.Context, payload map[string]any) (any, error)

// Handle calls f(ctx, payload). The load state is ignored.
func (f HandlerFunc) Handle(ctx context.Context, payload map[string]any, _ any) (any, error) {
	return f(ctx, payload)
}

// StatefulHandlerFunc adapts a function that receives the load state.
// A runtime using it must also have a load handler.
type StatefulHandlerFunc func(ctx context.Context, payload map[string]any, state any) (any, error)

// Handle calls f(ctx, payload, state).
func (f StatefulHandlerFunc) Handle(ctx context.Context, payload map[string]any, state any) (any, error) {
	return f(ctx, payload, state)
}

func (f StatefulHandlerFunc) requiresState() bool { return true }

type stateRequirer interface {
	requiresState() bool
}

// Runtime runs the load/ready/serve lifecycle of a task process.
// Tasks are processed strictly one at a time in input order.
type Runtime struct {
	load      LoadFunc
	handler   Handler
	regErrs   []error
	in        io.Reader
	out       io.Writer
	maxLine   int
	logger    *runqylog.Logger
	state     any
	phase     Phase
	processed int
	mu        sync.Mutex
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithInput sets the stream tasks are read from. Defaults to os.Stdin.
func WithInput(r io.Reader) RuntimeOption {
	return func(rt *Runtime) { rt.in = r }
}

// WithOutput sets the stream responses are written to. Defaults to os.Stdout.
func WithOutput(w io.Writer) RuntimeOption {
	return func(rt *Runtime) { rt.out = w }
}

// WithMaxLineBytes sets the largest accepted input line.
func WithMaxLineBytes(n int) RuntimeOption {
	return func(rt *Runtime) { rt.maxLine = n }
}

// WithRuntimeLogger sets the logger. It must not write to the output stream.
func WithRuntimeLogger(l *slog.Logger) RuntimeOption {
	return func(rt *Runtime) { rt.logger = runqylog.New(l) }
}

// NewRuntime creates a Runtime with no handlers registered.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		in:      os.Stdin,
		out:     os.Stdout,
		maxLine: protocol.DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = runqylog.New(nil)
	}
	return rt
}

// SetLoadHandler registers the load function. At most one may be registered.
// A failed registration is also reported by Validate.
func (r *Runtime) SetLoadHandler(fn LoadFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	switch {
	case r.phase != PhaseUninitialized:
		err = task.NewConfigurationError("cannot register a load handler after the runtime has started")
	case fn == nil:
		err = task.NewConfigurationError("load handler must not be nil")
	case r.load != nil:
		err = task.NewConfigurationError("a load handler is already registered")
	default:
		r.load = fn
		return nil
	}
	r.regErrs = append(r.regErrs, err)
	return err
}

// SetTaskHandler registers the task handler. Exactly one must be registered.
// A failed registration is also reported by Validate.
func (r *Runtime) SetTaskHandler(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	switch {
	case r.phase != PhaseUninitialized:
		err = task.NewConfigurationError("cannot register a task handler after the runtime has started")
	case h == nil:
		err = task.NewConfigurationError("task handler must not be nil")
	case r.handler != nil:
		err = task.NewConfigurationError("a task handler is already registered")
	default:
		r.handler = h
		return nil
	}
	r.regErrs = append(r.regErrs, err)
	return err
}

// Validate checks the handler registrations without touching the streams.
func (r *Runtime) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.validateLocked()
}

func (r *Runtime) validateLocked() error {
	if len(r.regErrs) > 0 {
		return errors.Join(r.regErrs...)
	}
	if r.handler == nil {
		return task.NewConfigurationError("no task handler registered")
	}
	if s, ok := r.handler.(stateRequirer); ok && s.requiresState() && r.load == nil {
		return task.NewConfigurationError("task handler expects load state but no load handler is registered")
	}
	return nil
}

// Phase returns the current lifecycle phase.
func (r *Runtime) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Processed returns the number of responses written so far.
func (r *Runtime) Processed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed
}

// Run loads, reports ready and then serves tasks until the input stream ends.
// It returns nil on end of input. A load failure returns an error wrapping
// ErrLoadFailed before anything is written.
func (r *Runtime) Run(ctx context.Context) error {
	return r.serve(ctx, false)
}

// RunOnce loads, reports ready and serves exactly one task, then returns.
// Further buffered input is left unread.
func (r *Runtime) RunOnce(ctx context.Context) error {
	return r.serve(ctx, true)
}

func (r *Runtime) serve(ctx context.Context, once bool) error {
	if err := r.start(); err != nil {
		return err
	}

	if r.load != nil {
		if err := r.transition(PhaseLoading); err != nil {
			return err
		}
		start := time.Now()
		r.logger.Info("running load handler")
		state, err := r.runLoad(ctx)
		if err != nil {
			r.terminate()
			r.logger.Error("load handler failed", slog.String("error", err.Error()))
			return fmt.Errorf("%w: %w", ErrLoadFailed, err)
		}
		r.state = state
		r.logger.Info("load handler completed", slog.Duration("duration", time.Since(start)))
	}

	if err := r.transition(PhaseReady); err != nil {
		return err
	}

	reader := protocol.NewReader(r.in, r.maxLine)
	writer := protocol.NewWriter(r.out)

	if err := writer.WriteReady(); err != nil {
		r.terminate()
		return fmt.Errorf("write ready signal: %w", err)
	}
	r.logger.Info("task runtime ready", slog.Bool("once", once))

	for {
		if err := ctx.Err(); err != nil {
			r.terminate()
			return err
		}

		line, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			r.terminate()
			r.logger.Info("input closed, stopping", slog.Int("processed", r.Processed()))
			return nil
		}

		var resp task.Response
		switch {
		case errors.Is(err, protocol.ErrLineTooLong):
			r.logger.Warn("rejecting oversized input line", slog.Int("max_bytes", r.maxLine))
			resp = task.Failed("", fmt.Sprintf("invalid task request: %v", err), true)
		case err != nil:
			r.terminate()
			return fmt.Errorf("read input: %w", err)
		case len(bytes.TrimSpace(line)) == 0:
			continue
		default:
			if err := r.transition(PhaseServing); err != nil {
				return err
			}
			resp = r.process(ctx, line)
		}

		if err := writer.WriteResponse(resp); err != nil {
			var uerr *protocol.UnencodableResultError
			if !errors.As(err, &uerr) {
				r.terminate()
				return err
			}
			r.logger.WithContext(runqylog.WithTaskID(ctx, uerr.TaskID)).Error("task result could not be encoded",
				slog.String("error", uerr.Err.Error()),
			)
		}
		r.mu.Lock()
		r.processed++
		r.mu.Unlock()

		if once {
			r.terminate()
			return nil
		}
	}
}

func (r *Runtime) start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseUninitialized {
		return ErrAlreadyStarted
	}
	return r.validateLocked()
}

func (r *Runtime) transition(next Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.phase.CanTransition(next) {
		return fmt.Errorf("invalid runtime transition: %s -> %s", r.phase, next)
	}
	r.phase = next
	return nil
}

func (r *Runtime) terminate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = PhaseTerminated
}

// process turns one input line into exactly one response.
func (r *Runtime) process(ctx context.Context, line []byte) task.Response {
	req, err := protocol.DecodeRequest(line)
	if err != nil {
		var merr *protocol.MalformedError
		taskID := ""
		if errors.As(err, &merr) {
			taskID = merr.TaskID
		}
		r.logger.WithContext(runqylog.WithTaskID(ctx, taskID)).Warn("malformed task request",
			slog.String("error", err.Error()),
		)
		return task.Failed(taskID, err.Error(), true)
	}

	ctx = runqylog.WithTaskID(ctx, req.ID())
	logger := r.logger.WithContext(ctx)

	start := time.Now()
	logger.Debug("processing task")

	result, err := r.executeWithRecovery(ctx, req)
	if err != nil {
		retry := task.IsRetryable(err)
		logger.Error("task execution failed",
			slog.String("error", err.Error()),
			slog.Bool("retry", retry),
		)
		return task.Failed(req.ID(), err.Error(), retry)
	}

	logger.Info("task completed", slog.Duration("duration", time.Since(start)))
	return task.Succeeded(req.ID(), result)
}

func (r *Runtime) executeWithRecovery(ctx context.Context, req task.Request) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	return r.handler.Handle(ctx, req.Payload(), r.state)
}

func (r *Runtime) runLoad(ctx context.Context) (state any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("load handler panicked: %v", rec)
		}
	}()
	return r.load(ctx)
}
