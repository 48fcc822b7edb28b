package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"

	"github.com/target/portal-auth/config"
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// ConnectDB establishes a connection to the PostgreSQL database.
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DBConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Session records are small single-row reads and writes.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}

	return db, nil
}

// ConnectRedis connects the direct, sentinel or cluster client selected by cfg.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	target, err := resolveRedisTarget(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := target.client()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis %s: %w", target.describe(), pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "redis connected", "mode", target.mode, "addr", target.describe())
	}
	return client, nil
}

// redisTarget is the resolved connection plan for one of the three client modes.
type redisTarget struct {
	mode     string // direct, sentinel or cluster
	addrs    []string
	master   string
	username string
	password string
	sentinel string
	db       int
	tls      *tls.Config
}

func resolveRedisTarget(cfg config.RedisConfig) (redisTarget, error) {
	switch {
	case cfg.UseCluster:
		t := redisTarget{mode: "cluster", addrs: trimAll(cfg.ClusterNodes), password: cfg.Password}
		if len(t.addrs) == 0 && strings.TrimSpace(cfg.URI) != "" {
			// A single seed node may come from REDIS_URI instead.
			if err := t.applyURI(cfg.URI); err != nil {
				return redisTarget{}, fmt.Errorf("parse redis cluster url: %w", err)
			}
		}
		if len(t.addrs) == 0 {
			return redisTarget{}, errors.New("redis cluster configuration requires at least one address")
		}
		return t, nil

	case cfg.UseSentinel:
		nodes := trimAll(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return redisTarget{}, errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		return redisTarget{
			mode:     "sentinel",
			addrs:    nodes,
			master:   cfg.SentinelMasterName,
			password: cfg.Password,
			sentinel: cfg.SentinelPassword,
			db:       cfg.DB,
		}, nil

	default:
		if strings.TrimSpace(cfg.URI) == "" {
			return redisTarget{}, errors.New("redis direct configuration requires a URI")
		}
		t := redisTarget{mode: "direct", password: cfg.Password, db: cfg.DB}
		if err := t.applyURI(cfg.URI); err != nil {
			return redisTarget{}, fmt.Errorf("parse redis url: %w", err)
		}
		return t, nil
	}
}

// applyURI accepts either host:port or a redis:// / rediss:// URL. URL
// credentials and db override the plain config values.
func (t *redisTarget) applyURI(raw string) error {
	uri := strings.TrimSpace(raw)
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		t.addrs = []string{uri}
		return nil
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return err
	}
	t.addrs = []string{opt.Addr}
	t.username = opt.Username
	if opt.Password != "" {
		t.password = opt.Password
	}
	t.db = opt.DB
	t.tls = opt.TLSConfig
	return nil
}

//nolint:ireturn // see ConnectRedis.
func (t redisTarget) client() redis.UniversalClient {
	switch t.mode {
	case "cluster":
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:     t.addrs,
			Username:  t.username,
			Password:  t.password,
			TLSConfig: t.tls,
		})
	case "sentinel":
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       t.master,
			SentinelAddrs:    t.addrs,
			Password:         t.password,
			SentinelPassword: t.sentinel,
			DB:               t.db,
		})
	default:
		return redis.NewClient(&redis.Options{
			Addr:      t.addrs[0],
			Username:  t.username,
			Password:  t.password,
			DB:        t.db,
			TLSConfig: t.tls,
		})
	}
}

// describe never includes credentials.
func (t redisTarget) describe() string {
	if t.mode == "sentinel" {
		return "sentinel:" + t.master
	}
	return strings.Join(t.addrs, ",")
}

func trimAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
