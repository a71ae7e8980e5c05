// Package config provides application configuration.
package config

import (
	"log/slog"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultLogLevel     = "INFO"
	DefaultTimeout      = 30 * time.Second
	DefaultTaskTimeout  = 300 * time.Second
	DefaultMaxLineBytes = 64 << 20
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// RemoteConfig configures the connection to a runqy server.
type RemoteConfig struct {
	serverURL   string
	apiKey      string
	timeout     time.Duration
	taskTimeout time.Duration
}

// NewRemoteConfig creates a new RemoteConfig with defaults.
func NewRemoteConfig() RemoteConfig {
	return RemoteConfig{
		timeout:     DefaultTimeout,
		taskTimeout: DefaultTaskTimeout,
	}
}

// ServerURL returns the server base URL.
func (r RemoteConfig) ServerURL() string { return r.serverURL }

// APIKey returns the API key.
func (r RemoteConfig) APIKey() string { return r.apiKey }

// Timeout returns the per-request timeout.
func (r RemoteConfig) Timeout() time.Duration { return r.timeout }

// TaskTimeout returns the default server-side execution limit for new tasks.
func (r RemoteConfig) TaskTimeout() time.Duration { return r.taskTimeout }

// IsConfigured returns true if a server URL is set.
func (r RemoteConfig) IsConfigured() bool { return r.serverURL != "" }

// RemoteConfigOption is a functional option for RemoteConfig.
type RemoteConfigOption func(*RemoteConfig)

// WithServerURL sets the server URL. A trailing slash is removed.
func WithServerURL(url string) RemoteConfigOption {
	return func(r *RemoteConfig) { r.serverURL = strings.TrimRight(url, "/") }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) RemoteConfigOption {
	return func(r *RemoteConfig) { r.apiKey = key }
}

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) RemoteConfigOption {
	return func(r *RemoteConfig) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithTaskTimeout sets the default task timeout. Non-positive values are ignored.
func WithTaskTimeout(d time.Duration) RemoteConfigOption {
	return func(r *RemoteConfig) {
		if d > 0 {
			r.taskTimeout = d
		}
	}
}

// NewRemoteConfigWithOptions creates a RemoteConfig with functional options.
func NewRemoteConfigWithOptions(opts ...RemoteConfigOption) RemoteConfig {
	r := NewRemoteConfig()
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Apply returns a copy of r with the given options applied.
func (r RemoteConfig) Apply(opts ...RemoteConfigOption) RemoteConfig {
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// AppConfig holds the configuration shared by the CLI and the SDK helpers.
type AppConfig struct {
	remote       RemoteConfig
	logLevel     string
	logFormat    LogFormat
	maxLineBytes int
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		remote:       NewRemoteConfig(),
		logLevel:     DefaultLogLevel,
		logFormat:    LogFormatPretty,
		maxLineBytes: DefaultMaxLineBytes,
	}
}

// Remote returns the server connection settings.
func (c AppConfig) Remote() RemoteConfig { return c.remote }

// LogLevel returns the log verbosity level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// MaxLineBytes returns the largest task request line the runtime accepts.
func (c AppConfig) MaxLineBytes() int { return c.maxLineBytes }

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithRemoteConfig sets the server connection settings.
func WithRemoteConfig(r RemoteConfig) AppConfigOption {
	return func(c *AppConfig) { c.remote = r }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithMaxLineBytes sets the maximum request line size. Non-positive values are ignored.
func WithMaxLineBytes(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.maxLineBytes = n
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// The API key is masked.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("server_url", c.serverURLForLog()),
		slog.String("api_key", MaskSecret(c.remote.apiKey)),
		slog.Duration("timeout", c.remote.timeout),
		slog.Duration("task_timeout", c.remote.taskTimeout),
		slog.String("log_level", c.logLevel),
		slog.String("log_format", string(c.logFormat)),
		slog.Int("max_line_bytes", c.maxLineBytes),
	}
}

func (c AppConfig) serverURLForLog() string {
	if !c.remote.IsConfigured() {
		return "(not configured)"
	}
	return c.remote.serverURL
}

// MaskSecret hides all but the last four characters of s.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 4:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}
