package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"todod/internal/config"
	"todod/internal/infra/db"
	httpinfra "todod/internal/infra/http"
	"todod/internal/logging"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

func loadConfig(opts *rootOptions) (config.Config, *log.Logger, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return config.Config{}, nil, err
	}
	cfg := config.FromEnv()
	if opts.addr != "" {
		cfg.HTTPAddr = opts.addr
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		return cfg, logger, err
	}
	return cfg, logger, nil
}

// openStore connects and makes sure the schema exists. A failure here is fatal
// for every command.
func openStore(ctx context.Context, cfg config.Config, logger *log.Logger) (*db.Store, error) {
	store, err := db.NewStore(ctx, cfg, db.Options{Logger: logger})
	if err != nil {
		logger.Error("failed to init store", "err", err)
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		logger.Error("failed to create schema", "err", err)
		return nil, err
	}
	return store, nil
}

func runServe(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig(opts)
	if err != nil {
		if logger == nil {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	if logging.ParseLevel(cfg.LogLevel) != log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := httpinfra.NewServer(cfg, store, logger)
	defer srv.Close()
	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited", "err", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

func runBootstrap(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		if logger == nil {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	store.Close()
	logger.Info("schema ready", "table", db.TodoModel{}.TableName())
	return nil
}
