package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/runqy/runqy-go/internal/mcp"
)

func mcpCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server on stdio",
		Long: `Run a Model Context Protocol server on stdin and stdout that lets an
assistant enqueue tasks and read their results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			client, err := newRemoteClient(cfg, logger)
			if err != nil {
				return err
			}

			logger.LogAttrs(cmd.Context(), slog.LevelInfo, "starting MCP server on stdio", cfg.LogAttrs()...)
			return mcp.NewServer(client, version, logger).ServeStdio()
		},
	}
}
