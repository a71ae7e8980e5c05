package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "RUNQY"

// EnvConfig holds all environment-based configuration.
// Field names map to environment variables with the RUNQY_ prefix.
type EnvConfig struct {
	// ServerURL is the runqy server base URL.
	// Env: RUNQY_SERVER_URL
	ServerURL string `envconfig:"SERVER_URL"`

	// APIKey is sent as a bearer token.
	// Env: RUNQY_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the HTTP request timeout in seconds.
	// Env: RUNQY_TIMEOUT (default: 30)
	Timeout float64 `envconfig:"TIMEOUT" default:"30"`

	// TaskTimeout is the default task execution timeout in seconds.
	// Env: RUNQY_TASK_TIMEOUT (default: 300)
	TaskTimeout float64 `envconfig:"TASK_TIMEOUT" default:"300"`

	// LogLevel is the log verbosity level.
	// Env: RUNQY_LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: RUNQY_LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// MaxLineBytes is the largest accepted task request line.
	// Env: RUNQY_MAX_LINE_BYTES (default: 67108864)
	MaxLineBytes int `envconfig:"MAX_LINE_BYTES" default:"67108864"`
}

// LoadFromEnv loads configuration from RUNQY_ environment variables.
func LoadFromEnv() (EnvConfig, error) {
	return LoadFromEnvWithPrefix(EnvPrefix)
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	remote := NewRemoteConfigWithOptions(
		WithServerURL(e.ServerURL),
		WithAPIKey(e.APIKey),
		WithTimeout(seconds(e.Timeout)),
		WithTaskTimeout(seconds(e.TaskTimeout)),
	)
	cfg = cfg.Apply(WithRemoteConfig(remote))

	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(strings.ToUpper(e.LogLevel)))
	}
	if e.LogFormat != "" {
		cfg = cfg.Apply(WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	return cfg.Apply(WithMaxLineBytes(e.MaxLineBytes))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
