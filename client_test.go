package runqy_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runqy/runqy-go"
	"github.com/runqy/runqy-go/internal/queuetest"
)

func TestClient_EnqueueThenGetTask(t *testing.T) {
	srv := queuetest.NewServer("key")
	defer srv.Close()

	client := runqy.NewClient(srv.URL(), "key")
	ctx := context.Background()

	info, err := client.Enqueue(ctx, "inference_default", map[string]any{"input": "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID())
	assert.Equal(t, runqy.StatePending, info.State())

	require.NoError(t, srv.Complete(info.ID(), map[string]any{"output": "HELLO"}))

	got, err := client.GetTask(ctx, info.ID())
	require.NoError(t, err)
	assert.Equal(t, runqy.StateCompleted, got.State())
	assert.Equal(t, map[string]any{"output": "HELLO"}, got.Result())
}

func TestClient_TaskTimeouts(t *testing.T) {
	srv := queuetest.NewServer("key")
	defer srv.Close()
	ctx := context.Background()

	client := runqy.NewClient(srv.URL(), "key", runqy.WithDefaultTaskTimeout(time.Minute))

	first, err := client.Enqueue(ctx, "q", map[string]any{})
	require.NoError(t, err)
	second, err := client.Enqueue(ctx, "q", map[string]any{}, runqy.WithTaskTimeout(5*time.Second))
	require.NoError(t, err)

	stored, ok := srv.Task(first.ID())
	require.True(t, ok)
	assert.Equal(t, int64(60), stored.Timeout)

	stored, ok = srv.Task(second.ID())
	require.True(t, ok)
	assert.Equal(t, int64(5), stored.Timeout)
}

func TestClient_DefaultTaskTimeout(t *testing.T) {
	srv := queuetest.NewServer("key")
	defer srv.Close()

	info, err := runqy.NewClient(srv.URL(), "key").Enqueue(context.Background(), "q", nil)
	require.NoError(t, err)

	stored, _ := srv.Task(info.ID())
	assert.Equal(t, int64(300), stored.Timeout)
}

func TestEnqueue_Convenience(t *testing.T) {
	srv := queuetest.NewServer("key")
	defer srv.Close()

	info, err := runqy.Enqueue(context.Background(), "q", map[string]any{"x": 1.0}, srv.URL(), "key")
	require.NoError(t, err)
	assert.Equal(t, "q", info.Queue())
	assert.Equal(t, map[string]any{"x": 1.0}, info.Payload())
	assert.Len(t, srv.Tasks(), 1)
}

func TestEnqueue_ConvenienceAuthFailure(t *testing.T) {
	srv := queuetest.NewServer("key")
	defer srv.Close()

	_, err := runqy.Enqueue(context.Background(), "q", map[string]any{}, srv.URL(), "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, runqy.ErrAuthentication)
	assert.ErrorIs(t, err, runqy.ErrRunqy)

	var rerr *runqy.RunqyError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusUnauthorized, rerr.StatusCode)
}

func TestClient_WithHTTPClient(t *testing.T) {
	srv := queuetest.NewServer("key")
	defer srv.Close()

	client := runqy.NewClient(srv.URL(), "key",
		runqy.WithHTTPClient(&http.Client{Timeout: time.Second}),
		runqy.WithUserAgent("my-app/2"),
		runqy.WithLogger(quietLogger()),
	)
	_, err := client.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, runqy.ErrTaskNotFound)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "my-app/2", reqs[0].Header.Get("User-Agent"))
}

func TestNewClientFromEnv(t *testing.T) {
	srv := queuetest.NewServer("env-key")
	defer srv.Close()

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RUNQY_API_KEY=env-key\nRUNQY_TASK_TIMEOUT=42\n"), 0o644))

	t.Setenv("RUNQY_SERVER_URL", srv.URL())
	t.Setenv("RUNQY_API_KEY", "")
	_ = os.Unsetenv("RUNQY_API_KEY")
	t.Setenv("RUNQY_TASK_TIMEOUT", "")
	_ = os.Unsetenv("RUNQY_TASK_TIMEOUT")

	client, err := runqy.NewClientFromEnv(envFile)
	require.NoError(t, err)

	info, err := client.Enqueue(context.Background(), "q", map[string]any{})
	require.NoError(t, err)
	stored, _ := srv.Task(info.ID())
	assert.Equal(t, int64(42), stored.Timeout)
}

func TestNewClientFromEnv_NoServerURL(t *testing.T) {
	t.Setenv("RUNQY_SERVER_URL", "")

	_, err := runqy.NewClientFromEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.ErrorIs(t, err, runqy.ErrConfiguration)
}
