package ports

// Package ports defines interfaces (hexagonal ports) for session and auth behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
)

// BeginInput carries inputs for initiating a sign-in flow.
type BeginInput struct {
	RedirectURL string
	// LoginHint preselects an account where the provider supports it.
	LoginHint string
}

// AuthProvider issues identities. It is the credential-issuing collaborator:
// the session core never verifies credentials itself.
type AuthProvider interface {
	// Begin starts the sign-in flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the flow, verifying state and nonce, and returns the issued principal.
	Exchange(ctx context.Context, in ExchangeInput) (Principal, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// Principal is what a provider knows about a user before role mapping.
// Providers that carry a role directly set Role and leave Groups empty.
type Principal struct {
	Username    string
	DisplayName string
	Groups      []string
	Role        domainauth.Role
}

// RoleMapper maps provider groups to a portal role.
// ok is false when the groups grant no portal access at all.
type RoleMapper interface {
	Map(groups []string) (role domainauth.Role, ok bool)
}
