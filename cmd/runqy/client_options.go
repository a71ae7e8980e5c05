package main

import (
	"errors"
	"log/slog"

	"github.com/runqy/runqy-go"
	"github.com/runqy/runqy-go/infrastructure/remote"
	"github.com/runqy/runqy-go/internal/config"
)

var errNoServerURL = errors.New("no runqy server configured: set RUNQY_SERVER_URL or pass --server-url")

func userAgent() string {
	return "runqy-cli/" + version
}

// newClient builds a queue client from the remote part of cfg.
func newClient(cfg config.AppConfig, logger *slog.Logger) (*runqy.Client, error) {
	rc := cfg.Remote()
	if !rc.IsConfigured() {
		return nil, errNoServerURL
	}
	return runqy.NewClient(rc.ServerURL(), rc.APIKey(),
		runqy.WithTimeout(rc.Timeout()),
		runqy.WithDefaultTaskTimeout(rc.TaskTimeout()),
		runqy.WithLogger(logger),
		runqy.WithUserAgent(userAgent()),
	), nil
}

// newRemoteClient builds the transport-level client used by the MCP bridge.
func newRemoteClient(cfg config.AppConfig, logger *slog.Logger) (*remote.Client, error) {
	rc := cfg.Remote()
	if !rc.IsConfigured() {
		return nil, errNoServerURL
	}
	return remote.NewClient(rc.ServerURL(), rc.APIKey(),
		remote.WithTimeout(rc.Timeout()),
		remote.WithLogger(logger),
		remote.WithUserAgent(userAgent()),
	), nil
}
