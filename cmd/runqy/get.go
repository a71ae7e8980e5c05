package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/runqy/runqy-go"
)

const defaultGetConcurrency = 4

func getCmd(flags *globalFlags) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "get TASK_ID...",
		Short: "Show the state and result of tasks",
		Long: `Fetch one or more tasks from the server. Each task is printed as one JSON
line, in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			client, err := newClient(cfg, newLogger(cmd, cfg))
			if err != nil {
				return err
			}

			infos := make([]runqy.TaskInfo, len(args))

			g, ctx := errgroup.WithContext(cmd.Context())
			if concurrency > 0 {
				g.SetLimit(concurrency)
			}
			for i, id := range args {
				g.Go(func() error {
					info, err := client.GetTask(ctx, id)
					if err != nil {
						return fmt.Errorf("get task %s: %w", id, err)
					}
					infos[i] = info
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for _, info := range infos {
				if err := printJSON(cmd.OutOrStdout(), info, false); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", defaultGetConcurrency, "Maximum number of concurrent requests")

	return cmd
}
