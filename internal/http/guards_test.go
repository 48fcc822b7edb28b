package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/portal-auth/internal/adapters/memstore"
	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/domain/guard"
	"github.com/target/portal-auth/internal/observability/metrics"
	"github.com/target/portal-auth/internal/observability/statsd"
	"github.com/target/portal-auth/internal/service"
	"github.com/target/portal-auth/internal/testutil"
)

type sessionCase string

const (
	sessLoading sessionCase = "loading"
	sessAnon    sessionCase = "anonymous"
	sessHR      sessionCase = "hr"
	sessAdmin   sessionCase = "admin"
)

func stateFor(t *testing.T, c sessionCase) *service.AuthState {
	t.Helper()
	st := service.NewAuthState(service.AuthStateOptions{
		Store: service.NewSessionStore(memstore.New(), "app.auth:guard-test"),
	})
	if c == sessLoading {
		return st
	}
	st.Hydrate(context.Background())
	switch c {
	case sessHR:
		require.NoError(t, st.SignIn(context.Background(), testutil.HRUser()))
	case sessAdmin:
		require.NoError(t, st.SignIn(context.Background(), testutil.AdminBoss()))
	}
	return st
}

func guardedHandler(t *testing.T, g *Guards, level guard.Level) (http.Handler, *domainauth.Identity) {
	t.Helper()
	var admitted domainauth.Identity
	h := g.Require(level)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok, "allowed requests carry the identity")
		admitted = id
		w.WriteHeader(http.StatusOK)
	}))
	return h, &admitted
}

func TestGuards_BrowserDecisions(t *testing.T) {
	g := &Guards{Navigation: requireNavigation(t), Pages: requirePages(t)}

	tests := []struct {
		level    guard.Level
		session  sessionCase
		status   int
		location string
	}{
		{guard.LevelGeneral, sessLoading, http.StatusOK, ""},
		{guard.LevelGeneral, sessAnon, http.StatusSeeOther, "/?redirect_uri=%2Fpage"},
		{guard.LevelGeneral, sessHR, http.StatusOK, ""},
		{guard.LevelGeneral, sessAdmin, http.StatusOK, ""},
		{guard.LevelElevated, sessLoading, http.StatusOK, ""},
		{guard.LevelElevated, sessAnon, http.StatusSeeOther, "/?redirect_uri=%2Fpage"},
		{guard.LevelElevated, sessHR, http.StatusSeeOther, "/403"},
		{guard.LevelElevated, sessAdmin, http.StatusOK, ""},
		{guard.LevelPublic, sessLoading, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.level)+"/"+string(tt.session), func(t *testing.T) {
			var reached bool
			handler := g.Require(tt.level)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			}))

			req := browserGet("/page")
			req = req.WithContext(WithAuthState(req.Context(), "p", stateFor(t, tt.session)))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			if tt.session == sessLoading && tt.level != guard.LevelPublic {
				assert.False(t, reached, "deferred navigation must not reach the page")
				assert.Equal(t, "1", rec.Header().Get("Refresh"))
				assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
				assert.Contains(t, rec.Body.String(), "Loading")
			}
		})
	}
}

func TestGuards_APIDecisions(t *testing.T) {
	g := &Guards{Navigation: requireNavigation(t)}

	tests := []struct {
		level   guard.Level
		session sessionCase
		status  int
		errCode string
	}{
		{guard.LevelGeneral, sessLoading, http.StatusAccepted, ""},
		{guard.LevelGeneral, sessAnon, http.StatusUnauthorized, "authentication_required"},
		{guard.LevelGeneral, sessHR, http.StatusOK, ""},
		{guard.LevelElevated, sessAnon, http.StatusUnauthorized, "authentication_required"},
		{guard.LevelElevated, sessHR, http.StatusForbidden, "insufficient_permissions"},
		{guard.LevelElevated, sessAdmin, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.level)+"/"+string(tt.session), func(t *testing.T) {
			h, _ := guardedHandler(t, g, tt.level)
			req := apiGet("/api/thing")
			req = req.WithContext(WithAuthState(req.Context(), "p", stateFor(t, tt.session)))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, rec.Header().Get("Location"))
			if tt.errCode != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.errCode, body["error"])
			}
			if tt.status == http.StatusAccepted {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
				assert.JSONEq(t, `{"status":"pending"}`, rec.Body.String())
			}
		})
	}
}

func TestGuards_AdmitsWithIdentity(t *testing.T) {
	g := &Guards{Navigation: requireNavigation(t)}
	h, admitted := guardedHandler(t, g, guard.LevelElevated)

	req := apiGet("/api/thing")
	req = req.WithContext(WithAuthState(req.Context(), "p", stateFor(t, sessAdmin)))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, testutil.AdminBoss(), *admitted)
}

func TestGuards_NoProfileIsAnonymous(t *testing.T) {
	g := &Guards{Navigation: requireNavigation(t)}
	h, _ := guardedHandler(t, g, guard.LevelGeneral)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, browserGet("/dashboard?tab=1"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?redirect_uri=%2Fdashboard%3Ftab%3D1", rec.Header().Get("Location"))
}

func TestGuards_EmitsDecisionMetrics(t *testing.T) {
	rec := &statsd.Recorder{}
	g := &Guards{Navigation: requireNavigation(t), Metrics: rec}
	h, _ := guardedHandler(t, g, guard.LevelElevated)

	req := apiGet("/api/thing")
	req = req.WithContext(WithAuthState(req.Context(), "p", stateFor(t, sessHR)))
	h.ServeHTTP(httptest.NewRecorder(), req)

	got := rec.Metrics()
	require.Len(t, got, 1)
	assert.Equal(t, metrics.GuardDecision, got[0].Name)
	assert.Equal(t, map[string]string{
		"level":    "elevated",
		"decision": "redirect-to-forbidden",
		"surface":  "api",
	}, got[0].Tags)
}
