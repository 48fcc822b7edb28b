// Package testutil provides shared fixtures for backend and service tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/alicebob/miniredis/v2"
	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/portal-auth/internal/domain/auth"
)

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Logf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Skip(args ...any)
	Skipf(format string, args ...any)
	Cleanup(func())
	TempDir() string
}

// TestDBConfig holds configuration for the Postgres test database.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig returns default test database configuration.
// Defaults to port 55432 (local test DB from docker-compose test profile).
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "55432"),
		User:     getEnvOrDefault("TEST_DB_USER", "portal"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "portal"),
		DBName:   getEnvOrDefault("TEST_DB_NAME", "portal"),
	}
}

// DSN renders the config as a pgx connection string.
func (c TestDBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		c.User, c.Password, net.JoinHostPort(c.Host, c.Port), c.DBName)
}

// TestDBDSN returns TEST_DB_DSN, or a DSN built from TEST_DB_* when TEST_DB_HOST is set.
func TestDBDSN() (string, bool) {
	if dsn := os.Getenv("TEST_DB_DSN"); dsn != "" {
		return dsn, true
	}
	if os.Getenv("TEST_DB_HOST") != "" {
		return DefaultTestDBConfig().DSN(), true
	}
	return "", false
}

// SetupTestPostgres opens a Postgres connection for integration tests.
// Tests are skipped unless TEST_DB_DSN (or TEST_DB_HOST) is set.
func SetupTestPostgres(t TestingTB) *sql.DB {
	t.Helper()

	dsn, ok := TestDBDSN()
	if !ok {
		t.Skip("Postgres not configured for testing (set TEST_DB_DSN)")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatal("Failed to open database:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Fatal("Failed to connect to test database:", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
	})
	return db
}

// SetupTestRedis returns a client backed by an in-process miniredis server.
// When TEST_REDIS_ADDR is set the live server at that address is used instead
// and its current DB is flushed.
func SetupTestRedis(t TestingTB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			if cerr := client.Close(); cerr != nil {
				t.Logf("warning: failed to close redis client after ping error: %v", cerr)
			}
			t.Skipf("Redis not available for testing at %s: %v", addr, err)
		}
		client.FlushDB(ctx)
		t.Cleanup(func() { _ = client.Close() })
		return client, nil
	}

	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

// TempSQLitePath returns a database path inside a per-test directory that does not exist yet.
func TempSQLitePath(t TestingTB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "data", "portal.db")
}

// HRUser is the standard-role fixture used across tests.
func HRUser() domainauth.Identity {
	return domainauth.Identity{Username: "hr_user", DisplayName: "HR User", Role: domainauth.RoleHR}
}

// AdminBoss is the elevated-role fixture used across tests.
func AdminBoss() domainauth.Identity {
	return domainauth.Identity{Username: "admin_boss", DisplayName: "Admin Boss", Role: domainauth.RoleAdmin}
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
