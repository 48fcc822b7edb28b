package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/service"
)

// unexported context key types.
type (
	authStateKey struct{}
	profileIDKey struct{}
	identityKey  struct{}
)

// WithAuthState stores the profile's manager in ctx.
func WithAuthState(ctx context.Context, profileID string, st *service.AuthState) context.Context {
	ctx = context.WithValue(ctx, profileIDKey{}, profileID)
	return context.WithValue(ctx, authStateKey{}, st)
}

// AuthStateFromContext returns the manager installed by the Profile middleware.
func AuthStateFromContext(ctx context.Context) (*service.AuthState, bool) {
	st, ok := ctx.Value(authStateKey{}).(*service.AuthState)
	return st, ok && st != nil
}

// ProfileIDFromContext returns the browser profile ID, or "" outside the Profile middleware.
func ProfileIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(profileIDKey{}).(string)
	return id
}

// SnapshotFromRequest returns the current session snapshot for r.
// Requests without a profile are anonymous.
func SnapshotFromRequest(r *http.Request) domainauth.Snapshot {
	if st, ok := AuthStateFromContext(r.Context()); ok {
		return st.Snapshot()
	}
	return domainauth.Snapshot{}
}

func withIdentity(ctx context.Context, id domainauth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity a guard admitted the request with.
func IdentityFromContext(ctx context.Context) (domainauth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domainauth.Identity)
	return id, ok
}
