package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/portal-auth/config"
	"github.com/target/portal-auth/internal/observability/statsd"
)

// BuildMetrics creates the StatsD client. A disabled config yields a client
// that drops every metric, so callers never need a nil check.
func BuildMetrics(ctx context.Context, cfg config.ObservabilityMetricsConfig, logger *slog.Logger) (*statsd.Client, error) {
	client, err := statsd.NewClient(ctx, statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create statsd client: %w", err)
	}
	if logger != nil && client.Enabled() {
		logger.InfoContext(ctx, "metrics enabled", "address", cfg.StatsdAddress, "prefix", cfg.Prefix)
	}
	return client, nil
}
