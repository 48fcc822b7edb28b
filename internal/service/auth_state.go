package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/ports"
)

// DefaultHydrateTimeout bounds the initial store read.
const DefaultHydrateTimeout = 5 * time.Second

// AuthStateOptions groups dependencies for AuthState.
type AuthStateOptions struct {
	Store          *SessionStore
	Diagnostics    ports.Diagnostics // optional
	Logger         *slog.Logger      // optional
	HydrateTimeout time.Duration     // default DefaultHydrateTimeout
	// OnHydrated, when set, is called once with the load status and how long the read took.
	OnHydrated func(status LoadStatus, took time.Duration)
}

// AuthState owns one profile's session snapshot. It starts loading, hydrates
// from the session store exactly once, and is the only writer to that store.
// Safe for concurrent use.
type AuthState struct {
	store   *SessionStore
	diag    ports.Diagnostics
	logger  *slog.Logger
	timeout time.Duration
	onHyd   func(LoadStatus, time.Duration)
	// adopt, when set, is called after each committed sign-in.
	adopt func(*AuthState)

	mu       sync.RWMutex
	snapshot domainauth.Snapshot

	hydrateOnce sync.Once
	ready       chan struct{}
	readyOnce   sync.Once
}

// NewAuthState constructs a manager in the loading state. Call Start or Hydrate to resolve it.
func NewAuthState(opts AuthStateOptions) *AuthState {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.HydrateTimeout
	if timeout <= 0 {
		timeout = DefaultHydrateTimeout
	}
	return &AuthState{
		store:    opts.Store,
		diag:     opts.Diagnostics,
		logger:   logger.With("component", "auth_state", "key", opts.Store.Key()),
		timeout:  timeout,
		onHyd:    opts.OnHydrated,
		snapshot: domainauth.Snapshot{Loading: true},
		ready:    make(chan struct{}),
	}
}

// resolveAnonymous leaves the loading state with no identity and without
// reading the store. Later Hydrate calls return immediately.
func (a *AuthState) resolveAnonymous() {
	a.hydrateOnce.Do(func() {
		a.mu.Lock()
		if a.snapshot.Loading {
			a.snapshot = domainauth.Snapshot{}
		}
		a.mu.Unlock()
		a.markReady()
	})
}

// Start runs hydration in the background and returns immediately.
func (a *AuthState) Start(ctx context.Context) {
	go a.Hydrate(ctx)
}

// Hydrate performs the initial store read and leaves the loading state.
// Only the first call does any work; later calls wait for it and return.
// The read is detached from ctx cancellation and bounded by the hydrate timeout.
func (a *AuthState) Hydrate(ctx context.Context) {
	a.hydrateOnce.Do(func() {
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		start := time.Now()
		res := a.store.Load(hctx)
		if a.onHyd != nil {
			a.onHyd(res.Status, time.Since(start))
		}
		if res.Status != LoadFound && res.Status != LoadMissing {
			a.report(hctx, ports.SessionOpLoad, string(res.Status), res.Err)
		}

		a.mu.Lock()
		committed := a.snapshot.Loading
		if committed {
			a.snapshot = domainauth.Snapshot{Identity: res.Identity}
		}
		a.mu.Unlock()
		a.markReady()

		if !committed {
			a.logger.DebugContext(hctx, "hydration result discarded; explicit transition already committed",
				"status", res.Status)
			return
		}
		a.logger.DebugContext(hctx, "session hydrated", "status", res.Status)
	})
	<-a.ready
}

// Ready is closed once the manager has left the loading state.
func (a *AuthState) Ready() <-chan struct{} { return a.ready }

// Snapshot returns the last committed snapshot.
func (a *AuthState) Snapshot() domainauth.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot.Clone()
}

// SignIn persists id and makes it the current identity. It returns
// ErrInvalidIdentity without touching any state when id is malformed.
// A failed write is reported to diagnostics and the transition still commits.
func (a *AuthState) SignIn(ctx context.Context, id domainauth.Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if err := a.store.Save(ctx, id); err != nil {
		a.report(ctx, ports.SessionOpSave, "error", err)
	}

	a.mu.Lock()
	a.snapshot = domainauth.Snapshot{Identity: &id}
	a.mu.Unlock()
	a.markReady()
	if a.adopt != nil {
		a.adopt(a)
	}

	a.logger.InfoContext(ctx, "signed in", "username", id.Username, "role", id.Role)
	return nil
}

// SignOut clears the stored record and the current identity. Idempotent.
func (a *AuthState) SignOut(ctx context.Context) {
	if err := a.store.Clear(ctx); err != nil {
		a.report(ctx, ports.SessionOpClear, "error", err)
	}

	a.mu.Lock()
	a.snapshot = domainauth.Snapshot{}
	a.mu.Unlock()
	a.markReady()

	a.logger.InfoContext(ctx, "signed out")
}

func (a *AuthState) markReady() {
	a.readyOnce.Do(func() { close(a.ready) })
}

func (a *AuthState) report(ctx context.Context, op ports.SessionOp, status string, err error) {
	if a.diag == nil {
		a.logger.WarnContext(ctx, "session store failure", "op", op, "status", status, "error", err)
		return
	}
	a.diag.ReportSessionFailure(ctx, ports.SessionFailure{
		Op:     op,
		Status: status,
		Key:    a.store.Key(),
		Err:    err,
	})
}
