package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/infrastructure/config"
	"github.com/yasakei/xos/internal/infrastructure/logging"
	"github.com/yasakei/xos/internal/infrastructure/server"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML or TOML config file")
	port := flag.String("port", "", "Server port (overrides config)")
	root := flag.String("root", "", "VFS root directory (overrides config)")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *root != "" {
		cfg.VFS.Root = *root
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting VFS server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("root", srv.Root()),
	)

	runErr := srv.Run(ctx)
	if err := srv.Close(); err != nil {
		logger.Warn("Error during shutdown", zap.Error(err))
	}
	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", runErr)
	}
}
