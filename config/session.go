package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionBackend names the durable store session records are kept in.
type SessionBackend string

const (
	SessionBackendMemory   SessionBackend = "memory"
	SessionBackendRedis    SessionBackend = "redis"
	SessionBackendSQLite   SessionBackend = "sqlite"
	SessionBackendPostgres SessionBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (b *SessionBackend) UnmarshalText(text []byte) error {
	v := SessionBackend(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case SessionBackendMemory, SessionBackendRedis, SessionBackendSQLite, SessionBackendPostgres:
		*b = v
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: memory, redis, sqlite, postgres)", v)
	}
}

const (
	defaultSessionKeyPrefix  = "app.auth"
	defaultHydrateTimeout    = 5 * time.Second
	maxHydrateTimeout        = time.Minute
	defaultSQLiteBusyTimeout = 5 * time.Second
)

// SessionConfig controls where session records live and how they are loaded.
type SessionConfig struct {
	Backend SessionBackend `env:"SESSION_BACKEND" envDefault:"sqlite"`

	// KeyPrefix namespaces record keys: "<prefix>:<profile>".
	KeyPrefix string `env:"SESSION_KEY_PREFIX" envDefault:"app.auth"`

	// HydrateTimeout bounds the initial store read per profile.
	HydrateTimeout time.Duration `env:"SESSION_HYDRATE_TIMEOUT" envDefault:"5s"`

	// RedisTTL expires idle records in Redis; zero keeps them until sign-out.
	RedisTTL time.Duration `env:"SESSION_REDIS_TTL" envDefault:"0"`

	SQLitePath        string        `env:"SESSION_SQLITE_PATH"         envDefault:"data/portal.db"`
	SQLiteBusyTimeout time.Duration `env:"SESSION_SQLITE_BUSY_TIMEOUT" envDefault:"5s"`
}

// Sanitize clamps timeouts and normalises the key prefix.
func (c *SessionConfig) Sanitize() {
	c.KeyPrefix = strings.TrimSuffix(strings.TrimSpace(c.KeyPrefix), ":")
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaultSessionKeyPrefix
	}
	if c.HydrateTimeout <= 0 {
		c.HydrateTimeout = defaultHydrateTimeout
	}
	if c.HydrateTimeout > maxHydrateTimeout {
		c.HydrateTimeout = maxHydrateTimeout
	}
	if c.RedisTTL < 0 {
		c.RedisTTL = 0
	}
	c.SQLitePath = strings.TrimSpace(c.SQLitePath)
	if c.SQLiteBusyTimeout <= 0 {
		c.SQLiteBusyTimeout = defaultSQLiteBusyTimeout
	}
}
