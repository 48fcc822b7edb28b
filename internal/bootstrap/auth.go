package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/portal-auth/config"
	"github.com/target/portal-auth/internal/adapters/authroles"
	"github.com/target/portal-auth/internal/adapters/devauth"
	"github.com/target/portal-auth/internal/adapters/oidc"
	httpx "github.com/target/portal-auth/internal/http"
	"github.com/target/portal-auth/internal/ports"
	"github.com/target/portal-auth/internal/service"
)

// AuthConfig contains configuration for the sign-in collaborator.
type AuthConfig struct {
	Auth   config.AuthConfig
	Logger *slog.Logger
}

// AuthComponents is what the router needs for sign-in.
type AuthComponents struct {
	Service *service.AuthService
	// Directory is set only in mock mode; it drives the login page's account list.
	Directory httpx.AccountDirectory
}

// BuildAuth creates the auth service for the configured mode.
func BuildAuth(ctx context.Context, cfg AuthConfig) (*AuthComponents, error) {
	roles := authroles.StaticRoleMapper{
		AdminGroup: cfg.Auth.AdminGroup,
		HRGroup:    cfg.Auth.HRGroup,
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err := buildDevAuthProvider(cfg)
		if err != nil {
			return nil, err
		}
		return &AuthComponents{
			Service:   newAuthService(prov, roles),
			Directory: prov,
		}, nil

	case config.AuthModeOAuth:
		prov, err := buildOAuthProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &AuthComponents{Service: newAuthService(prov, roles)}, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

func newAuthService(prov ports.AuthProvider, roles ports.RoleMapper) *service.AuthService {
	return service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Roles:    roles,
	})
}

func buildDevAuthProvider(cfg AuthConfig) (*devauth.Provider, error) {
	users, err := devauth.ParseDirectory(cfg.Auth.DevAuth.Users)
	if err != nil {
		return nil, fmt.Errorf("parse dev auth users: %w", err)
	}
	prov, err := devauth.NewProvider(devauth.Config{Users: users})
	if err != nil {
		return nil, fmt.Errorf("create dev auth provider: %w", err)
	}
	if cfg.Logger != nil {
		cfg.Logger.Warn("mock sign-in enabled; do not use in production", "accounts", len(users))
	}
	return prov, nil
}

func buildOAuthProvider(ctx context.Context, cfg AuthConfig) (*oidc.Provider, error) {
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Error("AuthModeOAuth selected but required config missing",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil, errors.New("oauth mode requires discovery URL, client ID and client secret")
	}

	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:         oauth.ClientID,
		ClientSecret:     oauth.ClientSecret,
		RedirectURL:      oauth.RedirectURL,
		Scope:            oauth.Scope,
		DiscoveryURL:     oauth.DiscoveryURL,
		UsernameClaim:    oauth.UsernameClaim,
		DisplayNameClaim: oauth.DisplayNameClaim,
		GroupsClaim:      oauth.GroupsClaim,
	})
	if err != nil {
		return nil, fmt.Errorf("create OIDC provider: %w", err)
	}
	return prov, nil
}
