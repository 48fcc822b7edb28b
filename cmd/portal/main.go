package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/target/portal-auth/config"
	"github.com/target/portal-auth/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	bootstrap.SetLogLevel(cfg.LogLevel)

	logStartupInfo(ctx, logger, &cfg)

	records, err := bootstrap.OpenRecordStore(ctx, bootstrap.RecordStoreConfig{
		Session:  cfg.Session,
		Postgres: cfg.Postgres,
		Redis:    cfg.Redis,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := records.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close record store failed", "error", cerr)
		}
	}()

	sink, err := bootstrap.BuildMetrics(ctx, cfg.Observability.Metrics, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close metrics client failed", "error", cerr)
		}
	}()

	auth, err := bootstrap.BuildAuth(ctx, bootstrap.AuthConfig{Auth: cfg.Auth, Logger: logger})
	if err != nil {
		return err
	}

	handler, err := bootstrap.BuildHandler(bootstrap.HandlerDeps{
		Config:  &cfg,
		Records: records.Store,
		Auth:    auth,
		Metrics: sink,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.Serve(ctx, bootstrap.ServeConfig{
		Server:          bootstrap.NewHTTPServer(cfg.HTTP, handler),
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		Logger:          logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting portal service",
		"addr", cfg.HTTP.Addr,
		"auth_mode", cfg.Auth.Mode,
		"session_backend", cfg.Session.Backend,
		"session_key_prefix", cfg.Session.KeyPrefix,
		"hydrate_timeout", cfg.Session.HydrateTimeout,
		"dev", cfg.IsDev,
	)
}
