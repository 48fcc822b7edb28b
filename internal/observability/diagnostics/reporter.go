// Package diagnostics receives recovered session storage failures.
// They are logged and counted, never surfaced to the user.
package diagnostics

import (
	"context"
	"log/slog"

	obserrors "github.com/target/portal-auth/internal/observability/errors"
	"github.com/target/portal-auth/internal/observability/metrics"
	"github.com/target/portal-auth/internal/observability/statsd"
	"github.com/target/portal-auth/internal/ports"
)

// Reporter implements ports.Diagnostics with structured logs plus a StatsD counter.
type Reporter struct {
	logger *slog.Logger
	sink   statsd.Sink
}

var _ ports.Diagnostics = (*Reporter)(nil)

// NewReporter builds a reporter. Both arguments are optional.
func NewReporter(logger *slog.Logger, sink statsd.Sink) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{logger: logger.With("component", "session_diagnostics"), sink: sink}
}

func (r *Reporter) ReportSessionFailure(ctx context.Context, f ports.SessionFailure) {
	r.logger.WarnContext(ctx, "session store failure recovered",
		"op", f.Op,
		"status", f.Status,
		"key", f.Key,
		"error_class", obserrors.Classify(f.Err),
		"error", f.Err,
	)
	metrics.EmitSessionFailure(r.sink, f)
}
