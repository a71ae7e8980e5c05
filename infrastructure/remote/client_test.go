package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runqy/runqy-go/domain/task"
	"github.com/runqy/runqy-go/internal/queuetest"
)

func TestClient_Enqueue(t *testing.T) {
	srv := queuetest.NewServer("secret")
	defer srv.Close()

	client := NewClient(srv.URL()+"/", "secret")
	payload := map[string]any{"input": "hello"}

	info, err := client.Enqueue(context.Background(), "inference_default", payload, 0)
	require.NoError(t, err)

	assert.Equal(t, "task-1", info.ID())
	assert.Equal(t, "inference_default", info.Queue())
	assert.Equal(t, task.StatePending, info.State())
	assert.Equal(t, payload, info.Payload())

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/queue/add", reqs[0].Path)
	assert.Equal(t, "Bearer secret", reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
	assert.Equal(t, DefaultUserAgent, reqs[0].Header.Get("User-Agent"))
	assert.JSONEq(t, `{"queue":"inference_default","timeout":300,"data":{"input":"hello"}}`, string(reqs[0].Body))
}

func TestClient_Enqueue_TaskTimeoutAndNilPayload(t *testing.T) {
	srv := queuetest.NewServer("secret")
	defer srv.Close()

	client := NewClient(srv.URL(), "secret", WithUserAgent("tests/1.0"))
	_, err := client.Enqueue(context.Background(), "q", nil, 90*time.Second)
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"queue":"q","timeout":90,"data":{}}`, string(reqs[0].Body))
	assert.Equal(t, "tests/1.0", reqs[0].Header.Get("User-Agent"))

	stored, ok := srv.Task("task-1")
	require.True(t, ok)
	assert.Equal(t, int64(90), stored.Timeout)
}

func TestClient_Enqueue_RoundsTaskTimeoutUp(t *testing.T) {
	tests := []struct {
		timeout time.Duration
		want    int64
	}{
		{timeout: time.Millisecond, want: 1},
		{timeout: 500 * time.Millisecond, want: 1},
		{timeout: 1500 * time.Millisecond, want: 2},
		{timeout: 2 * time.Second, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.timeout.String(), func(t *testing.T) {
			srv := queuetest.NewServer("secret")
			defer srv.Close()

			_, err := NewClient(srv.URL(), "secret").Enqueue(context.Background(), "q", nil, tt.timeout)
			require.NoError(t, err)

			stored, ok := srv.Task("task-1")
			require.True(t, ok)
			assert.Equal(t, tt.want, stored.Timeout)
		})
	}
}

func TestClient_Enqueue_UnencodablePayload(t *testing.T) {
	srv := queuetest.NewServer("secret")
	defer srv.Close()

	_, err := NewClient(srv.URL(), "secret").Enqueue(context.Background(), "q", map[string]any{"x": math.Inf(1)}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrRunqy)
	assert.NotErrorIs(t, err, task.ErrAuthentication)
	assert.Contains(t, err.Error(), "encode payload")

	var unsupported *json.UnsupportedValueError
	assert.True(t, errors.As(err, &unsupported))

	var rerr *task.RunqyError
	require.True(t, errors.As(err, &rerr))
	assert.Zero(t, rerr.StatusCode)
	assert.Empty(t, srv.Requests())
}

func TestClient_LogsCarryQueueAndTaskID(t *testing.T) {
	srv := queuetest.NewServer("secret")
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := NewClient(srv.URL(), "secret", WithLogger(logger)).Enqueue(context.Background(), "images", nil, 0)
	require.NoError(t, err)

	var enqueued map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		assert.Equal(t, "images", rec["queue"])
		if rec["msg"] == "task enqueued" {
			enqueued = rec
		}
	}
	require.NotNil(t, enqueued)
	assert.Equal(t, "task-1", enqueued["task_id"])
	assert.Equal(t, "pending", enqueued["state"])
}

func TestClient_Enqueue_ResponseDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"info":{"id":"abc"}}`))
	}))
	defer srv.Close()

	info, err := NewClient(srv.URL, "k").Enqueue(context.Background(), "images", map[string]any{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", info.ID())
	assert.Equal(t, "images", info.Queue())
	assert.Equal(t, task.StatePending, info.State())
}

func TestClient_GetTask(t *testing.T) {
	for _, snake := range []bool{false, true} {
		name := "go field names"
		var opts []queuetest.Option
		if snake {
			name = "snake case field names"
			opts = append(opts, queuetest.WithSnakeCase())
		}
		t.Run(name, func(t *testing.T) {
			srv := queuetest.NewServer("secret", opts...)
			defer srv.Close()

			client := NewClient(srv.URL(), "secret")
			queued, err := client.Enqueue(context.Background(), "inference", map[string]any{"input": "x"}, 0)
			require.NoError(t, err)
			require.NoError(t, srv.Complete(queued.ID(), map[string]any{"label": "cat", "score": 0.9}))

			info, err := client.GetTask(context.Background(), queued.ID())
			require.NoError(t, err)
			assert.Equal(t, queued.ID(), info.ID())
			assert.Equal(t, "inference", info.Queue())
			assert.Equal(t, task.StateCompleted, info.State())
			assert.True(t, info.State().IsTerminal())
			assert.Equal(t, map[string]any{"label": "cat", "score": 0.9}, info.Result())
			assert.Equal(t, map[string]any{"input": "x"}, info.Payload())
			assert.Empty(t, info.LastError())
		})
	}
}

func TestClient_GetTask_FailedTask(t *testing.T) {
	srv := queuetest.NewServer("secret")
	defer srv.Close()
	srv.Put(queuetest.Task{ID: "t-9", Queue: "q", State: "failed", LastErr: "out of memory"})

	info, err := NewClient(srv.URL(), "secret").GetTask(context.Background(), "t-9")
	require.NoError(t, err)
	assert.Equal(t, task.StateFailed, info.State())
	assert.Equal(t, "out of memory", info.LastError())
	assert.Nil(t, info.Result())
}

func TestClient_GetTask_EscapesID(t *testing.T) {
	srv := queuetest.NewServer("secret")
	defer srv.Close()
	srv.Put(queuetest.Task{ID: "a/b c", Queue: "q", State: "active"})

	info, err := NewClient(srv.URL(), "secret").GetTask(context.Background(), "a/b c")
	require.NoError(t, err)
	assert.Equal(t, "a/b c", info.ID())

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/queue/a%2Fb%20c", reqs[0].Path)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		message  string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: "bad key", sentinel: task.ErrAuthentication, message: "authentication failed: bad key"},
		{name: "forbidden", status: http.StatusForbidden, body: "nope", sentinel: task.ErrAuthentication, message: "authentication failed: nope"},
		{name: "not found", status: http.StatusNotFound, body: "missing", sentinel: task.ErrTaskNotFound, message: "task not found: missing"},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", message: "HTTP 500: boom"},
		{name: "bad request", status: http.StatusBadRequest, body: "queue is required", message: "HTTP 400: queue is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := queuetest.NewServer("secret", queuetest.WithFailure(tt.status, tt.body))
			defer srv.Close()
			client := NewClient(srv.URL(), "secret")

			_, enqErr := client.Enqueue(context.Background(), "q", map[string]any{}, 0)
			_, getErr := client.GetTask(context.Background(), "t-1")

			for _, err := range []error{enqErr, getErr} {
				require.Error(t, err)
				assert.ErrorIs(t, err, task.ErrRunqy)
				if tt.sentinel != nil {
					assert.ErrorIs(t, err, tt.sentinel)
				}
				assert.Equal(t, tt.message, err.Error())

				var rerr *task.RunqyError
				require.True(t, errors.As(err, &rerr))
				assert.Equal(t, tt.status, rerr.StatusCode)
				assert.Equal(t, tt.body, rerr.Body)
			}
		})
	}
}

func TestClient_WrongKey(t *testing.T) {
	srv := queuetest.NewServer("secret")
	defer srv.Close()

	_, err := NewClient(srv.URL(), "wrong").Enqueue(context.Background(), "q", map[string]any{}, 0)
	assert.ErrorIs(t, err, task.ErrAuthentication)
	assert.Empty(t, srv.Tasks())
}

func TestClient_UnknownTask(t *testing.T) {
	srv := queuetest.NewServer("secret")
	defer srv.Close()

	_, err := NewClient(srv.URL(), "secret").GetTask(context.Background(), "nope")
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
	assert.NotErrorIs(t, err, task.ErrAuthentication)
}

func TestClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "k").GetTask(context.Background(), "t")
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrRunqy)
	assert.NotErrorIs(t, err, task.ErrTaskNotFound)
	assert.Contains(t, err.Error(), "connection error")

	var rerr *task.RunqyError
	require.True(t, errors.As(err, &rerr))
	assert.Zero(t, rerr.StatusCode)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, "k", WithTimeout(50*time.Millisecond)).GetTask(context.Background(), "t")
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrRunqy)
	assert.Contains(t, err.Error(), "connection error")
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k").Enqueue(context.Background(), "q", map[string]any{}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrRunqy)

	var rerr *task.RunqyError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusOK, rerr.StatusCode)
	assert.Equal(t, `<html>oops</html>`, rerr.Body)

	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
}

func TestNewClient_NoNetworkIO(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/", "k")
	assert.Equal(t, "http://127.0.0.1:1", c.BaseURL())
}
