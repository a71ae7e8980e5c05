package runqy

import (
	"context"
	"time"

	"github.com/runqy/runqy-go/domain/task"
	"github.com/runqy/runqy-go/infrastructure/remote"
	"github.com/runqy/runqy-go/internal/config"
	runqylog "github.com/runqy/runqy-go/internal/log"
)

// TaskInfo describes a task as reported by the runqy server.
type TaskInfo = task.Info

// State is a task state reported by the server.
type State = task.State

// Task states.
const (
	StatePending   = task.StatePending
	StateQueued    = task.StateQueued
	StateScheduled = task.StateScheduled
	StateActive    = task.StateActive
	StateRetry     = task.StateRetry
	StateArchived  = task.StateArchived
	StateCompleted = task.StateCompleted
	StateFailed    = task.StateFailed
)

// Client submits tasks to a runqy server and reads their state.
// It is safe for concurrent use.
type Client struct {
	remote      *remote.Client
	taskTimeout time.Duration
}

// NewClient creates a Client. No request is made until a method is called.
func NewClient(serverURL, apiKey string, opts ...Option) *Client {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	remoteOpts := []remote.Option{
		remote.WithTimeout(cfg.timeout),
		remote.WithHTTPClient(cfg.httpClient),
		remote.WithLogger(cfg.logger),
		remote.WithUserAgent(cfg.userAgent),
	}

	return &Client{
		remote:      remote.NewClient(serverURL, apiKey, remoteOpts...),
		taskTimeout: cfg.taskTimeout,
	}
}

// NewClientFromEnv creates a Client from RUNQY_SERVER_URL, RUNQY_API_KEY,
// RUNQY_TIMEOUT and RUNQY_TASK_TIMEOUT, after loading envFile if it exists.
// The client logs to stderr using RUNQY_LOG_LEVEL and RUNQY_LOG_FORMAT.
// Options override the environment.
func NewClientFromEnv(envFile string, opts ...Option) (*Client, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, err
	}
	return newClientFromConfig(cfg, opts...)
}

func newClientFromConfig(cfg config.AppConfig, opts ...Option) (*Client, error) {
	rc := cfg.Remote()
	if !rc.IsConfigured() {
		return nil, task.NewConfigurationError("no server URL configured (set RUNQY_SERVER_URL)")
	}
	base := []Option{
		WithTimeout(rc.Timeout()),
		WithDefaultTaskTimeout(rc.TaskTimeout()),
		WithLogger(runqylog.NewLogger(cfg).Slog()),
	}
	return NewClient(rc.ServerURL(), rc.APIKey(), append(base, opts...)...), nil
}

// Enqueue submits payload to queue and returns the server's acknowledgement.
// The returned TaskInfo carries the submitted payload.
func (c *Client) Enqueue(ctx context.Context, queue string, payload map[string]any, opts ...EnqueueOption) (TaskInfo, error) {
	cfg := enqueueConfig{taskTimeout: c.taskTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return c.remote.Enqueue(ctx, queue, payload, cfg.taskTimeout)
}

// GetTask returns the current state of a task, including its result once
// it has completed.
func (c *Client) GetTask(ctx context.Context, id string) (TaskInfo, error) {
	return c.remote.GetTask(ctx, id)
}

// Enqueue submits a single task without keeping a Client around.
func Enqueue(ctx context.Context, queue string, payload map[string]any, serverURL, apiKey string, opts ...EnqueueOption) (TaskInfo, error) {
	return NewClient(serverURL, apiKey).Enqueue(ctx, queue, payload, opts...)
}
