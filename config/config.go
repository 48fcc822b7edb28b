package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: sign-in provider configuration
//   - session.go: session record backend and hydration
//   - database.go: Postgres and Redis connection settings
//   - http.go: HTTP server configuration
//   - observability.go: metrics emission
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel accepts debug, info, warn, or error.
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	Auth    AuthConfig
	Session SessionConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Session.Sanitize()
	c.Auth.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// ErrMockAuthOutsideDev is returned by Validate when mock sign-in is
// configured without development mode.
var ErrMockAuthOutsideDev = errors.New("AUTH_MODE=mock requires DEV=true or NODE_ENV=development")

// Validate rejects combinations Sanitize cannot repair. Call it after Sanitize.
func (c *AppConfig) Validate() error {
	if c.Auth.Mode == AuthModeMock && !c.IsDev {
		return ErrMockAuthOutsideDev
	}
	return nil
}

// detectDevMode checks NODE_ENV as a fallback for DEV.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
