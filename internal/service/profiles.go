package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/target/portal-auth/internal/ports"
)

// DefaultKeyPrefix namespaces session records in the record store.
const DefaultKeyPrefix = "app.auth"

// ProfilesOptions groups dependencies for Profiles.
type ProfilesOptions struct {
	Records        ports.RecordStore
	Diagnostics    ports.Diagnostics
	Logger         *slog.Logger
	KeyPrefix      string        // default DefaultKeyPrefix
	HydrateTimeout time.Duration // passed to each AuthState
	OnHydrated     func(status LoadStatus, took time.Duration)
}

// Profiles holds one AuthState per browser profile for the life of the process.
type Profiles struct {
	records ports.RecordStore
	diag    ports.Diagnostics
	logger  *slog.Logger
	prefix  string
	timeout time.Duration
	onHyd   func(LoadStatus, time.Duration)

	mu     sync.Mutex
	states map[string]*AuthState
}

// NewProfiles constructs an empty registry.
func NewProfiles(opts ProfilesOptions) *Profiles {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix := strings.TrimSuffix(strings.TrimSpace(opts.KeyPrefix), ":")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Profiles{
		records: opts.Records,
		diag:    opts.Diagnostics,
		logger:  logger,
		prefix:  prefix,
		timeout: opts.HydrateTimeout,
		onHyd:   opts.OnHydrated,
		states:  make(map[string]*AuthState),
	}
}

// KeyFor returns the record key for a profile.
func (p *Profiles) KeyFor(profileID string) string {
	return p.prefix + ":" + profileID
}

// Store returns a SessionStore bound to the profile's key without creating a manager.
func (p *Profiles) Store(profileID string) *SessionStore {
	return NewSessionStore(p.records, p.KeyFor(profileID))
}

func (p *Profiles) newState(profileID string) *AuthState {
	return NewAuthState(AuthStateOptions{
		Store:          p.Store(profileID),
		Diagnostics:    p.diag,
		Logger:         p.logger,
		HydrateTimeout: p.timeout,
		OnHydrated:     p.onHyd,
	})
}

// Get returns the profile's manager, creating it and starting hydration on first access.
func (p *Profiles) Get(ctx context.Context, profileID string) *AuthState {
	p.mu.Lock()
	st, ok := p.states[profileID]
	if !ok {
		st = p.newState(profileID)
		p.states[profileID] = st
	}
	p.mu.Unlock()

	if !ok {
		st.Start(ctx)
	}
	return st
}

// Fresh returns an already resolved anonymous manager for a profile ID that
// was just minted and so has no stored record. The manager is not kept until
// its first sign-in; until then a later Get for the same ID hydrates from the
// store as usual. A registered manager for profileID is returned unchanged.
func (p *Profiles) Fresh(profileID string) *AuthState {
	p.mu.Lock()
	if st, ok := p.states[profileID]; ok {
		p.mu.Unlock()
		return st
	}
	p.mu.Unlock()

	st := p.newState(profileID)
	st.resolveAnonymous()
	st.adopt = func(a *AuthState) { p.adopt(profileID, a) }
	return st
}

// adopt registers st for profileID unless another manager got there first.
func (p *Profiles) adopt(profileID string, st *AuthState) {
	p.mu.Lock()
	if _, ok := p.states[profileID]; !ok {
		p.states[profileID] = st
	}
	p.mu.Unlock()
}

// Len reports how many profiles have a live manager.
func (p *Profiles) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.states)
}
