package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/paper-checker/internal/adapters/mcp"
	"github.com/kirillkom/paper-checker/internal/bootstrap"
	"github.com/kirillkom/paper-checker/internal/config"
	"github.com/kirillkom/paper-checker/internal/observability/logging"
)

func main() {
	// stdout carries the MCP protocol.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", "info"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{})
	if err != nil {
		slog.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := mcpadapter.NewServer(app.Checker, app.Queries, cfg.CheckTimeout)
	if err := server.ServeStdio(); err != nil {
		slog.Error("mcp_server_error", "error", err)
	}
}
