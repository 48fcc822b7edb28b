package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/portal-auth/config"
	"github.com/target/portal-auth/internal/adapters/memstore"
	"github.com/target/portal-auth/internal/adapters/postgres"
	redisadapter "github.com/target/portal-auth/internal/adapters/redis"
	"github.com/target/portal-auth/internal/adapters/sqlite"
	"github.com/target/portal-auth/internal/ports"
)

// RecordStoreConfig selects and configures the session record backend.
type RecordStoreConfig struct {
	Session  config.SessionConfig
	Postgres config.DBConfig
	Redis    config.RedisConfig
	Logger   *slog.Logger
}

// Records is an open record backend plus whatever must be closed with it.
type Records struct {
	Store   ports.RecordStore
	Backend config.SessionBackend
	closers []func() error
}

// Close releases the backend connections.
func (r *Records) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// OpenRecordStore connects the configured backend.
func OpenRecordStore(ctx context.Context, cfg RecordStoreConfig) (*Records, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := &Records{Backend: cfg.Session.Backend}

	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		logger.WarnContext(ctx, "session records are kept in memory and lost on restart")
		rec.Store = memstore.New()

	case config.SessionBackendRedis:
		client, err := ConnectRedis(ctx, DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rec.Store = redisadapter.NewRecordStore(client, cfg.Session.RedisTTL)
		rec.closers = append(rec.closers, client.Close)

	case config.SessionBackendSQLite:
		store, err := sqlite.Open(ctx, sqlite.Config{
			Path:        cfg.Session.SQLitePath,
			BusyTimeout: cfg.Session.SQLiteBusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("open sqlite record store: %w", err)
		}
		logger.InfoContext(ctx, "sqlite record store opened", "path", store.Path())
		rec.Store = store
		rec.closers = append(rec.closers, store.Close)

	case config.SessionBackendPostgres:
		db, err := ConnectDB(ctx, DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		store := postgres.NewRecordStore(db)
		if cfg.Postgres.RunMigrationsOnStart {
			if err := store.EnsureSchema(ctx); err != nil {
				return nil, errors.Join(fmt.Errorf("ensure session schema: %w", err), db.Close())
			}
		} else {
			logger.InfoContext(ctx, "skipping session schema creation", "reason", "disabled via config")
		}
		rec.Store = store
		rec.closers = append(rec.closers, db.Close)

	default:
		return nil, fmt.Errorf("unsupported session backend %q", cfg.Session.Backend)
	}

	return rec, nil
}
