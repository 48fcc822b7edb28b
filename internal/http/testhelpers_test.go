package httpx

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	portal "github.com/target/portal-auth"
	"github.com/target/portal-auth/internal/adapters/authroles"
	"github.com/target/portal-auth/internal/adapters/devauth"
	"github.com/target/portal-auth/internal/adapters/memstore"
	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/observability/statsd"
	"github.com/target/portal-auth/internal/ports"
	"github.com/target/portal-auth/internal/service"
)

const testDirectory = "hr_user:HR User:hr;admin_boss:Admin Boss:admin"

func requirePages(t *testing.T) *Pages {
	t.Helper()
	sub, err := fs.Sub(portal.TemplateFS, "frontend/templates")
	require.NoError(t, err)
	pages, err := NewPages(sub, nil)
	require.NoError(t, err)
	return pages
}

func requireNavigation(t *testing.T) *Navigation {
	t.Helper()
	nav, err := LoadNavigation(portal.NavigationYAML)
	require.NoError(t, err)
	return nav
}

// testEnv is a fully wired router over an in-memory record store.
type testEnv struct {
	handler  http.Handler
	profiles *service.Profiles
	records  ports.RecordStore
	metrics  *statsd.Recorder
	dir      *devauth.Provider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRecords(t, memstore.New())
}

func newTestEnvWithRecords(t *testing.T, records ports.RecordStore) *testEnv {
	t.Helper()
	users, err := devauth.ParseDirectory(testDirectory)
	require.NoError(t, err)
	dir, err := devauth.NewProvider(devauth.Config{Users: users})
	require.NoError(t, err)

	env := &testEnv{
		profiles: service.NewProfiles(service.ProfilesOptions{Records: records}),
		records:  records,
		metrics:  &statsd.Recorder{},
		dir:      dir,
	}
	env.handler = NewRouter(RouterServices{
		Auth: service.NewAuthService(service.AuthServiceOptions{
			Provider: dir,
			Roles:    authroles.StaticRoleMapper{AdminGroup: "portal-admins", HRGroup: "portal-hr"},
		}),
		Profiles:   env.profiles,
		Navigation: requireNavigation(t),
		Pages:      requirePages(t),
		Directory:  dir,
		Metrics:    env.metrics,
	})
	return env
}

// readyProfile creates the profile's manager and waits for hydration.
func (e *testEnv) readyProfile(t *testing.T, profileID string) *service.AuthState {
	t.Helper()
	st := e.profiles.Get(context.Background(), profileID)
	waitReady(t, st)
	return st
}

// signedIn returns a profile cookie whose session already holds id.
func (e *testEnv) signedIn(t *testing.T, id domainauth.Identity) *http.Cookie {
	t.Helper()
	profileID := uuid.NewString()
	st := e.readyProfile(t, profileID)
	require.NoError(t, st.SignIn(context.Background(), id))
	return profileCookie(profileID)
}

// anonymous returns a profile cookie whose session has resolved to no identity.
func (e *testEnv) anonymous(t *testing.T) *http.Cookie {
	t.Helper()
	profileID := uuid.NewString()
	e.readyProfile(t, profileID)
	return profileCookie(profileID)
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func waitReady(t *testing.T, st *service.AuthState) {
	t.Helper()
	select {
	case <-st.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("hydration did not resolve")
	}
}

func profileCookie(profileID string) *http.Cookie {
	return &http.Cookie{Name: ProfileCookieName, Value: profileID}
}

func browserGet(path string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func apiGet(path string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// gatedStore blocks Get until release is closed, keeping hydration in flight.
type gatedStore struct {
	*memstore.Store
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{Store: memstore.New(), release: make(chan struct{})}
}

func (g *gatedStore) Get(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-g.release:
		return g.Store.Get(ctx, key)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
