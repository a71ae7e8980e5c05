package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/runqy/runqy-go"
)

func echoCmd(flags *globalFlags) *cobra.Command {
	var (
		once      bool
		failOn    string
		retryOn   string
		loadDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Run an echo task process",
		Long: `Run a task process that answers every task with {"echo": payload}.

The process speaks the runqy worker protocol on stdin and stdout and logs to
stderr. It is useful for testing worker deployments end to end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			rt := runqy.NewRuntime(
				runqy.WithInput(cmd.InOrStdin()),
				runqy.WithOutput(cmd.OutOrStdout()),
				runqy.WithMaxLineBytes(cfg.MaxLineBytes()),
				runqy.WithRuntimeLogger(logger),
			)

			if loadDelay > 0 {
				if err := rt.SetLoadHandler(func(ctx context.Context) (any, error) {
					select {
					case <-time.After(loadDelay):
						return nil, nil
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}); err != nil {
					return err
				}
			}

			if err := rt.SetTaskHandler(echoHandler(failOn, retryOn, logger)); err != nil {
				return err
			}

			serve := rt.Run
			if once {
				serve = rt.RunOnce
			}
			if err := serve(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Exit after a single task")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "Fail tasks whose payload contains this key")
	cmd.Flags().StringVar(&retryOn, "retry-on", "", "Fail tasks whose payload contains this key, asking for a retry")
	cmd.Flags().DurationVar(&loadDelay, "load-delay", 0, "Simulated model load time before reporting ready")

	return cmd
}

func echoHandler(failOn, retryOn string, logger *slog.Logger) runqy.HandlerFunc {
	return func(ctx context.Context, payload map[string]any) (any, error) {
		logger.Debug("echoing task", slog.String("task_id", runqy.TaskID(ctx)))

		if failOn != "" {
			if _, ok := payload[failOn]; ok {
				return nil, fmt.Errorf("payload contains %q", failOn)
			}
		}
		if retryOn != "" {
			if _, ok := payload[retryOn]; ok {
				return nil, runqy.Retryable(fmt.Errorf("payload contains %q", retryOn))
			}
		}
		return map[string]any{"echo": payload}, nil
	}
}
