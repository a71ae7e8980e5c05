// Package main is the entry point for the runqy CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runqy/runqy-go/internal/config"
	"github.com/runqy/runqy-go/internal/log"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// globalFlags are the flags shared by every subcommand.
type globalFlags struct {
	envFile   string
	serverURL string
	apiKey    string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "runqy",
		Short: "runqy task queue tools",
		Long: `runqy submits tasks to a runqy server, inspects their results and runs
task processes that speak the runqy worker protocol on stdin and stdout.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "Path to .env file")
	cmd.PersistentFlags().StringVar(&flags.serverURL, "server-url", "", "runqy server URL (overrides RUNQY_SERVER_URL)")
	cmd.PersistentFlags().StringVar(&flags.apiKey, "api-key", "", "API key (overrides RUNQY_API_KEY)")

	cmd.AddCommand(enqueueCmd(flags))
	cmd.AddCommand(getCmd(flags))
	cmd.AddCommand(echoCmd(flags))
	cmd.AddCommand(mcpCmd(flags))
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from the .env file and environment
// variables, then applies command-line overrides.
func loadConfig(flags *globalFlags) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(flags.envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}

	var overrides []config.RemoteConfigOption
	if flags.serverURL != "" {
		overrides = append(overrides, config.WithServerURL(flags.serverURL))
	}
	if flags.apiKey != "" {
		overrides = append(overrides, config.WithAPIKey(flags.apiKey))
	}
	return cfg.Apply(config.WithRemoteConfig(cfg.Remote().Apply(overrides...))), nil
}

// newLogger builds the command logger. It always writes to stderr so that
// stdout stays free for command output and the task protocol.
func newLogger(cmd *cobra.Command, cfg config.AppConfig) *slog.Logger {
	return log.NewLoggerWithWriter(cmd.ErrOrStderr(), cfg.LogFormat(), cfg.LogLevel()).Slog()
}
