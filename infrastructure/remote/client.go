// Package remote talks to the runqy server's HTTP queue API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/runqy/runqy-go/domain/task"
	runqylog "github.com/runqy/runqy-go/internal/log"
)

// Defaults for the queue client.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultTaskTimeout = 300 * time.Second
	DefaultUserAgent   = "runqy-go"
)

// Client issues queue requests against one runqy server.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
	logger     *runqylog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
// Its Timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = runqylog.New(l)
		}
	}
}

// NewClient creates a Client for serverURL. A trailing slash is ignored.
// No request is made until Enqueue or GetTask is called.
func NewClient(serverURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(serverURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  DefaultUserAgent,
		logger:     runqylog.New(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

type enqueueRequest struct {
	Queue   string         `json:"queue"`
	Timeout int64          `json:"timeout"`
	Data    map[string]any `json:"data"`
}

// Enqueue submits payload to queue. taskTimeout is the server-side execution
// limit, sent in whole seconds rounded up; zero or less selects
// DefaultTaskTimeout.
func (c *Client) Enqueue(ctx context.Context, queue string, payload map[string]any, taskTimeout time.Duration) (task.Info, error) {
	if taskTimeout <= 0 {
		taskTimeout = DefaultTaskTimeout
	}
	if payload == nil {
		payload = map[string]any{}
	}
	ctx = runqylog.WithQueue(ctx, queue)

	body, err := json.Marshal(enqueueRequest{
		Queue:   queue,
		Timeout: timeoutSeconds(taskTimeout),
		Data:    payload,
	})
	if err != nil {
		return task.Info{}, task.NewRequestError(fmt.Errorf("encode payload: %w", err))
	}

	status, raw, err := c.do(ctx, http.MethodPost, "/queue/add", body)
	if err != nil {
		return task.Info{}, err
	}

	info, err := parseEnqueueResponse(raw, queue, payload)
	if err != nil {
		return task.Info{}, task.NewDecodeError(status, string(raw), err)
	}

	c.logger.WithContext(runqylog.WithTaskID(ctx, info.ID())).Debug("task enqueued",
		slog.String("state", info.State().String()),
	)
	return info, nil
}

// timeoutSeconds converts d to whole seconds, rounding up so that a
// sub-second limit is never sent as zero.
func timeoutSeconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}

// GetTask fetches the current state of a task.
func (c *Client) GetTask(ctx context.Context, id string) (task.Info, error) {
	ctx = runqylog.WithTaskID(ctx, id)

	segment, err := runtime.StyleParamWithLocation("simple", false, "task_id", runtime.ParamLocationPath, id)
	if err != nil {
		return task.Info{}, task.NewRequestError(fmt.Errorf("encode task id: %w", err))
	}

	status, raw, err := c.do(ctx, http.MethodGet, "/queue/"+segment, nil)
	if err != nil {
		return task.Info{}, err
	}

	info, err := parseTaskResponse(raw, id)
	if err != nil {
		return task.Info{}, task.NewDecodeError(status, string(raw), err)
	}
	return info, nil
}

// do performs one request and returns the status and body of a 2xx response.
// Any other outcome is returned as a *task.RunqyError.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, task.NewTransportError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	logger := c.logger.WithContext(ctx)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("queue request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return 0, nil, task.NewTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, task.NewTransportError(fmt.Errorf("read response body: %w", err))
	}

	logger.Debug("queue request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, raw, nil
	}
	return resp.StatusCode, raw, statusError(resp.StatusCode, strings.TrimSpace(string(raw)))
}

func statusError(status int, body string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return task.NewAuthenticationError(status, body)
	case http.StatusNotFound:
		return task.NewTaskNotFoundError(body)
	default:
		return task.NewStatusError(status, body)
	}
}
