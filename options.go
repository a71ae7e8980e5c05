package runqy

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/runqy/runqy-go/internal/config"
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	timeout     time.Duration
	taskTimeout time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
	userAgent   string
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		timeout:     config.DefaultTimeout,
		taskTimeout: config.DefaultTaskTimeout,
	}
}

// Option configures a Client.
type Option func(*clientConfig)

// WithTimeout sets the per-request timeout. The default is 30 seconds.
// It has no effect together with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithDefaultTaskTimeout sets the task timeout used when Enqueue is called
// without WithTaskTimeout. The default is 300 seconds.
func WithDefaultTaskTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.taskTimeout = d
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// enqueueConfig holds per-call Enqueue settings.
type enqueueConfig struct {
	taskTimeout time.Duration
}

// EnqueueOption configures a single Enqueue call.
type EnqueueOption func(*enqueueConfig)

// WithTaskTimeout sets the server-side execution limit of the task.
func WithTaskTimeout(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		c.taskTimeout = d
	}
}
