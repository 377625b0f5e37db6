package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"mailgate/internal/config"
	"mailgate/internal/gateway"
	"mailgate/internal/rpc"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to optional configuration file")
	dumpPath := flag.String("dump-config", "", "write the resolved configuration (password redacted) to this path and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *dumpPath != "" {
		if err := config.Save(config.Redact(*cfg), *dumpPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info("mailgate starting",
		"protocol", cfg.Mailbox.Protocol,
		"mailbox", cfg.Mailbox.Host,
		"smtp", cfg.SMTP.Host,
	)

	srv := server.NewMCPServer("mailgate", version, server.WithToolCapabilities(false))
	rpc.Register(srv, gateway.New(cfg, logger))

	if err := server.ServeStdio(srv); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("mailgate stopped")
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
