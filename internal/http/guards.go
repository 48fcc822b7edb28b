package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/domain/guard"
	"github.com/target/portal-auth/internal/observability/metrics"
	"github.com/target/portal-auth/internal/observability/statsd"
)

// Guards turns guard decisions into HTTP responses. It adds no authentication
// logic of its own: the decision comes from the domain guards over the
// request's session snapshot.
type Guards struct {
	Navigation *Navigation
	Pages      *Pages
	Metrics    statsd.Sink
	Logger     *slog.Logger
}

func (g *Guards) logger() *slog.Logger {
	if g != nil && g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// Require wraps next in the guard chain for level. Elevated routes are
// evaluated inside the general guard.
func (g *Guards) Require(level guard.Level) func(http.Handler) http.Handler {
	chain := guard.Nesting(level)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := SnapshotFromRequest(r)
			decision := guard.Chain(snap, chain...)
			browser := IsBrowserRequest(r)

			metrics.EmitGuardDecision(g.Metrics, metrics.GuardMetric{
				Level:    string(level),
				Decision: decision,
				API:      !browser,
			})
			g.logger().DebugContext(r.Context(), "guard decision",
				slog.String("path", r.URL.Path),
				slog.String("level", string(level)),
				slog.String("decision", decision.String()))

			switch decision {
			case domainauth.DecisionAllow:
				ctx := r.Context()
				if snap.Identity != nil {
					ctx = withIdentity(ctx, *snap.Identity)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
			case domainauth.DecisionDefer:
				g.deferRequest(w, r, browser)
			case domainauth.DecisionRedirectLogin:
				g.redirectToLogin(w, r, browser)
			default:
				g.redirectToForbidden(w, r, browser)
			}
		})
	}
}

// deferRequest holds the navigation until hydration resolves. Browsers get a
// neutral page that refreshes itself; API clients are told to retry.
func (g *Guards) deferRequest(w http.ResponseWriter, r *http.Request, browser bool) {
	w.Header().Set("Cache-Control", "no-store")
	if !browser {
		w.Header().Set("Retry-After", "1")
		WriteJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
		return
	}
	w.Header().Set("Refresh", "1")
	if g.Pages == nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		return
	}
	g.Pages.Render(w, r, http.StatusOK, PageWaiting, PageData{Title: "Loading"})
}

func (g *Guards) redirectToLogin(w http.ResponseWriter, r *http.Request, browser bool) {
	if !browser {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	q := url.Values{}
	q.Set("redirect_uri", safeRedirectPath(r.URL.RequestURI()))
	http.Redirect(w, r, g.loginPath()+"?"+q.Encode(), http.StatusSeeOther)
}

func (g *Guards) redirectToForbidden(w http.ResponseWriter, r *http.Request, browser bool) {
	if !browser {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
		return
	}
	http.Redirect(w, r, g.forbiddenPath(), http.StatusSeeOther)
}

func (g *Guards) loginPath() string {
	if g.Navigation != nil {
		return g.Navigation.Login
	}
	return "/"
}

func (g *Guards) forbiddenPath() string {
	if g.Navigation != nil {
		return g.Navigation.Forbidden
	}
	return "/403"
}
