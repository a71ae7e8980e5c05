package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/runqy/runqy-go"
)

func enqueueCmd(flags *globalFlags) *cobra.Command {
	var (
		payload     string
		payloadFile string
		taskTimeout time.Duration
		compact     bool
	)

	cmd := &cobra.Command{
		Use:   "enqueue QUEUE",
		Short: "Submit a task to a queue",
		Long: `Submit a task to a queue and print the server's acknowledgement.

The payload is a JSON or YAML object given with --payload or read from a
file with --payload-file ("-" reads stdin).`,
		Example: `  runqy enqueue inference_default --payload '{"input":"hello"}'
  runqy enqueue inference_default --payload-file task.yaml --timeout 10m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			data, err := readPayload(payload, payloadFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			client, err := newClient(cfg, logger)
			if err != nil {
				return err
			}

			var opts []runqy.EnqueueOption
			if taskTimeout > 0 {
				opts = append(opts, runqy.WithTaskTimeout(taskTimeout))
			}

			info, err := client.Enqueue(cmd.Context(), args[0], data, opts...)
			if err != nil {
				return fmt.Errorf("enqueue: %w", err)
			}
			logger.Info("task enqueued", slog.String("task_id", info.ID()), slog.String("queue", info.Queue()))

			return printJSON(cmd.OutOrStdout(), info, !compact)
		},
	}

	cmd.Flags().StringVarP(&payload, "payload", "p", "", "Task payload as a JSON or YAML object")
	cmd.Flags().StringVarP(&payloadFile, "payload-file", "f", "", `File holding the payload ("-" for stdin)`)
	cmd.Flags().DurationVar(&taskTimeout, "timeout", 0, "Server-side task timeout (default RUNQY_TASK_TIMEOUT)")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print single-line JSON")

	return cmd
}
