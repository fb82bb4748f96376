package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/VinMeld/autopost/internal/config"
	"github.com/VinMeld/autopost/internal/logging"
	"github.com/VinMeld/autopost/internal/mockapi"
)

func main() {
	var (
		configPath string
		port       string
	)
	flag.StringVar(&configPath, "config", "", "config file")
	flag.StringVar(&port, "port", "", "Server port (overrides mockapi.port)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}
	if port != "" {
		cfg.MockAPI.Port = port
	}
	if len(flag.Args()) > 0 {
		cfg.MockAPI.DataDir = flag.Args()[0]
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := mockapi.NewServer(ctx, cfg.MockAPI, logger)
	if err != nil {
		logger.Fatal("failed to init server", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
