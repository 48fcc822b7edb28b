package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	portal "github.com/target/portal-auth"
	"github.com/target/portal-auth/config"
	httpx "github.com/target/portal-auth/internal/http"
	"github.com/target/portal-auth/internal/observability/diagnostics"
	"github.com/target/portal-auth/internal/observability/metrics"
	"github.com/target/portal-auth/internal/observability/statsd"
	"github.com/target/portal-auth/internal/ports"
	"github.com/target/portal-auth/internal/service"
)

// HandlerDeps contains everything BuildHandler wires together.
type HandlerDeps struct {
	Config  *config.AppConfig
	Records ports.RecordStore
	Auth    *AuthComponents
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// Handler is the portal's root handler plus the profile registry behind it.
type Handler struct {
	http.Handler
	Profiles *service.Profiles
}

// BuildHandler loads the embedded navigation manifest and page templates and
// builds the router on top of a fresh profile registry.
func BuildHandler(deps HandlerDeps) (*Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := deps.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}
	if deps.Records == nil {
		return nil, errors.New("record store is required")
	}
	if deps.Auth == nil || deps.Auth.Service == nil {
		return nil, errors.New("auth service is required")
	}

	nav, err := httpx.LoadNavigation(portal.NavigationYAML)
	if err != nil {
		return nil, fmt.Errorf("load navigation: %w", err)
	}
	templates, err := fs.Sub(portal.TemplateFS, "frontend/templates")
	if err != nil {
		return nil, fmt.Errorf("open templates: %w", err)
	}
	pages, err := httpx.NewPages(templates, logger)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	sink := deps.Metrics
	profiles := service.NewProfiles(service.ProfilesOptions{
		Records:        deps.Records,
		Diagnostics:    diagnostics.NewReporter(logger, sink),
		Logger:         logger,
		KeyPrefix:      appCfg.Session.KeyPrefix,
		HydrateTimeout: appCfg.Session.HydrateTimeout,
		OnHydrated: func(status service.LoadStatus, took time.Duration) {
			metrics.EmitHydration(sink, string(status), took)
		},
	})

	router := httpx.NewRouter(httpx.RouterServices{
		Auth:         deps.Auth.Service,
		Profiles:     profiles,
		Navigation:   nav,
		Pages:        pages,
		Directory:    deps.Auth.Directory,
		Metrics:      sink,
		CookieDomain: appCfg.HTTP.CookieDomain,
		Logger:       logger,
	})

	logger.Info("portal routes registered",
		"routes", len(nav.Routes),
		"login", nav.Login,
		"forbidden", nav.Forbidden,
		"home", nav.Home,
	)

	return &Handler{Handler: router, Profiles: profiles}, nil
}

// NewHTTPServer creates the HTTP server without starting it.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ServeConfig contains dependencies for running the HTTP server.
type ServeConfig struct {
	Server *http.Server
	// Listener is optional; when nil the server listens on Server.Addr.
	Listener        net.Listener
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Serve runs the server until ctx is cancelled or the server fails, then
// shuts it down gracefully.
func Serve(ctx context.Context, cfg ServeConfig) error {
	if cfg.Server == nil {
		return errors.New("server is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ln := cfg.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := cfg.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}
