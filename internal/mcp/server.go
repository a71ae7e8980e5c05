// Package mcp exposes the runqy queue as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/runqy/runqy-go/domain/task"
	runqylog "github.com/runqy/runqy-go/internal/log"
)

// TaskQueue submits and looks up tasks.
type TaskQueue interface {
	Enqueue(ctx context.Context, queue string, payload map[string]any, taskTimeout time.Duration) (task.Info, error)
	GetTask(ctx context.Context, id string) (task.Info, error)
}

// Server wraps the MCP server with runqy tools.
type Server struct {
	mcpServer *server.MCPServer
	queue     TaskQueue
	version   string
	logger    *runqylog.Logger
}

// NewServer creates a new MCP server backed by queue.
func NewServer(queue TaskQueue, version string, logger *slog.Logger) *Server {
	s := &Server{
		queue:   queue,
		version: version,
		logger:  runqylog.New(logger),
	}

	mcpServer := server.NewMCPServer(
		"runqy",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	enqueueTool := mcp.NewTool("enqueue_task",
		mcp.WithDescription("Submit a task to a runqy queue and return its initial state"),
		mcp.WithString("queue",
			mcp.Required(),
			mcp.Description("Queue name, e.g. inference_default"),
		),
		mcp.WithString("payload",
			mcp.Required(),
			mcp.Description("Task payload as a JSON object"),
		),
		mcp.WithNumber("timeout_seconds",
			mcp.Description("Server-side execution limit in seconds (default: 300)"),
		),
	)
	mcpServer.AddTool(enqueueTool, s.handleEnqueue)

	getTaskTool := mcp.NewTool("get_task",
		mcp.WithDescription("Get the state, result and last error of a task"),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task ID returned by enqueue_task"),
		),
	)
	mcpServer.AddTool(getTaskTool, s.handleGetTask)

	versionTool := mcp.NewTool("get_version",
		mcp.WithDescription("Get the runqy SDK version"),
	)
	mcpServer.AddTool(versionTool, s.handleGetVersion)
}

func (s *Server) handleEnqueue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queue, err := request.RequireString("queue")
	if err != nil || queue == "" {
		return mcp.NewToolResultError("queue is required"), nil
	}

	rawPayload, err := request.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError("payload is required"), nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(rawPayload), &payload); err != nil || payload == nil {
		return mcp.NewToolResultError("payload must be a JSON object"), nil
	}

	timeout := time.Duration(request.GetFloat("timeout_seconds", 0) * float64(time.Second))

	info, err := s.queue.Enqueue(ctx, queue, payload, timeout)
	if err != nil {
		s.logger.WithContext(runqylog.WithQueue(ctx, queue)).Error("enqueue failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("enqueue failed: %v", err)), nil
	}

	return infoResult(info)
}

func (s *Server) handleGetTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("task_id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("task_id is required"), nil
	}

	info, err := s.queue.GetTask(ctx, id)
	if err != nil {
		s.logger.WithContext(runqylog.WithTaskID(ctx, id)).Error("get task failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("get task failed: %v", err)), nil
	}

	return infoResult(info)
}

func (s *Server) handleGetVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.version), nil
}

func infoResult(info task.Info) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(info)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal task: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
