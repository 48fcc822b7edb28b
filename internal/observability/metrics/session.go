package metrics

import (
	"time"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
	obserrors "github.com/target/portal-auth/internal/observability/errors"
	"github.com/target/portal-auth/internal/observability/statsd"
	"github.com/target/portal-auth/internal/ports"
)

// Metric names.
const (
	GuardDecision        = "guard.decision"
	SessionStoreFailure  = "session.store_failure"
	SessionHydrationTime = "session.hydration"
)

// GuardMetric captures one guard evaluation on a route.
type GuardMetric struct {
	Level    string
	Decision domainauth.Decision
	API      bool
}

// EmitGuardDecision counts a guard outcome.
func EmitGuardDecision(sink statsd.Sink, in GuardMetric) {
	if sink == nil {
		return
	}
	surface := "browser"
	if in.API {
		surface = "api"
	}
	sink.Count(GuardDecision, 1, map[string]string{
		"level":    in.Level,
		"decision": in.Decision.String(),
		"surface":  surface,
	})
}

// EmitSessionFailure counts a recovered session store failure.
func EmitSessionFailure(sink statsd.Sink, f ports.SessionFailure) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"op":     string(f.Op),
		"status": f.Status,
	}
	if class := obserrors.Classify(f.Err); class != "" {
		tags["error_class"] = class
	}
	sink.Count(SessionStoreFailure, 1, tags)
}

// EmitHydration records how long the initial store read took.
func EmitHydration(sink statsd.Sink, status string, d time.Duration) {
	if sink == nil || d <= 0 {
		return
	}
	sink.Timing(SessionHydrationTime, d, map[string]string{"status": status})
}
