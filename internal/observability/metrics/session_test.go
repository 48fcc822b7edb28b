package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/observability/statsd"
	"github.com/target/portal-auth/internal/ports"
)

func TestEmitGuardDecision(t *testing.T) {
	var rec statsd.Recorder
	EmitGuardDecision(&rec, GuardMetric{Level: "elevated", Decision: domainauth.DecisionRedirectForbidden})
	EmitGuardDecision(&rec, GuardMetric{Level: "general", Decision: domainauth.DecisionDefer, API: true})

	got := rec.Metrics()
	require.Len(t, got, 2)
	assert.Equal(t, GuardDecision, got[0].Name)
	assert.Equal(t, map[string]string{"level": "elevated", "decision": "redirect-to-forbidden", "surface": "browser"}, got[0].Tags)
	assert.Equal(t, "api", got[1].Tags["surface"])
	assert.Equal(t, "defer", got[1].Tags["decision"])
}

func TestEmitSessionFailure(t *testing.T) {
	var rec statsd.Recorder
	EmitSessionFailure(&rec, ports.SessionFailure{
		Op:     ports.SessionOpLoad,
		Status: "unavailable",
		Err:    fmt.Errorf("read session record: %w", context.DeadlineExceeded),
	})

	got := rec.Metrics()
	require.Len(t, got, 1)
	assert.Equal(t, SessionStoreFailure, got[0].Name)
	assert.Equal(t, map[string]string{"op": "load", "status": "unavailable", "error_class": "timeout"}, got[0].Tags)
}

func TestEmitters_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitGuardDecision(nil, GuardMetric{})
		EmitSessionFailure(nil, ports.SessionFailure{})
		EmitHydration(nil, "found", time.Second)
	})
}

func TestEmitHydration(t *testing.T) {
	var rec statsd.Recorder
	EmitHydration(&rec, "found", 0)
	EmitHydration(&rec, "found", 3*time.Millisecond)

	got := rec.Metrics()
	require.Len(t, got, 1)
	assert.Equal(t, 3*time.Millisecond, got[0].Duration)
}
