package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/portal-auth/internal/domain/guard"
	"github.com/target/portal-auth/internal/observability/statsd"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth       AuthServiceInterface
	Profiles   ProfileRegistry
	Navigation *Navigation
	Pages      *Pages
	// Directory is optional (mock sign-in only).
	Directory    AccountDirectory
	Metrics      statsd.Sink
	CookieDomain string
	Logger       *slog.Logger
}

// NewRouter creates the portal router. Every route except /healthz runs
// inside the Profile middleware, so handlers and guards always see the
// request's session manager.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	guards := &Guards{
		Navigation: services.Navigation,
		Pages:      services.Pages,
		Metrics:    services.Metrics,
		Logger:     logger,
	}
	pages := &PageHandlers{
		Pages:      services.Pages,
		Navigation: services.Navigation,
		Directory:  services.Directory,
	}
	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		Navigation:   services.Navigation,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	}
	api := &APIHandlers{Directory: services.Directory}

	app := http.NewServeMux()
	registerPageRoutes(app, pages, guards)
	registerAuthRoutes(app, authHandlers)
	registerAPIRoutes(app, api, guards)
	app.HandleFunc("/", pages.NotFound)

	profiled := Profile(ProfileConfig{
		Registry:     services.Profiles,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	})(app)

	root := http.NewServeMux()
	root.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	root.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	root.Handle("/", profiled)

	return Recover(logger)(Logging(logger)(BrowserDetection()(root)))
}

func registerPageRoutes(mux *http.ServeMux, h *PageHandlers, g *Guards) {
	nav := h.Navigation
	mux.HandleFunc("GET "+exactPattern(nav.Login), h.Login)
	mux.HandleFunc("GET "+exactPattern(nav.Forbidden), h.Forbidden)
	for _, rt := range nav.Routes {
		mux.Handle("GET "+exactPattern(rt.Path), g.Require(rt.Guard)(h.Route(rt)))
	}
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerAPIRoutes(mux *http.ServeMux, h *APIHandlers, g *Guards) {
	mux.Handle("GET /api/me", g.Require(guard.LevelGeneral)(http.HandlerFunc(h.Me)))
	mux.Handle("GET /api/admin/users", g.Require(guard.LevelElevated)(http.HandlerFunc(h.Users)))
}

// exactPattern keeps "/" from matching every path.
func exactPattern(path string) string {
	if path == "/" {
		return "/{$}"
	}
	return path
}
