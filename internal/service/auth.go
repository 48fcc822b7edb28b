package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/ports"
)

// ErrNoPortalAccess is returned when a principal maps to no portal role.
var ErrNoPortalAccess = errors.New("principal has no portal role")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Roles    ports.RoleMapper
}

// AuthService drives the credential-issuing collaborator and turns its
// principal into a portal Identity. It never persists anything; the
// caller hands the Identity to the profile's AuthState.
type AuthService struct {
	provider ports.AuthProvider
	roles    ports.RoleMapper
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	return &AuthService{
		provider: opts.Provider,
		roles:    opts.Roles,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, in ports.BeginInput) (*BeginLoginResult, error) {
	if in.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code for a principal and maps it to an Identity.
// A role carried by the provider wins; otherwise groups go through the role mapper.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (domainauth.Identity, error) {
	if input.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	if input.State == "" {
		return domainauth.Identity{}, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return domainauth.Identity{}, errors.New("nonce parameter is required")
	}

	principal, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange authorization code: %w", err)
	}

	role := principal.Role
	if !role.Valid() {
		mapped, ok := s.mapRole(principal.Groups)
		if !ok {
			return domainauth.Identity{}, fmt.Errorf("%w: %s", ErrNoPortalAccess, principal.Username)
		}
		role = mapped
	}

	id := domainauth.Identity{
		Username:    strings.TrimSpace(principal.Username),
		DisplayName: strings.TrimSpace(principal.DisplayName),
		Role:        role,
	}
	if id.DisplayName == "" {
		id.DisplayName = id.Username
	}
	if err := id.Validate(); err != nil {
		return domainauth.Identity{}, fmt.Errorf("build identity: %w", err)
	}
	return id, nil
}

func (s *AuthService) mapRole(groups []string) (domainauth.Role, bool) {
	if s.roles == nil {
		return "", false
	}
	return s.roles.Map(groups)
}
