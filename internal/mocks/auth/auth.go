package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider = (*MockAuthProvider)(nil)
	_ ports.Diagnostics  = (*RecordingDiagnostics)(nil)
)

// MockAuthProvider simulates a credential-issuing collaborator with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (ports.Principal, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser ports.Principal

	mu        sync.Mutex
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: ports.Principal{
			Username:    "hr_user",
			DisplayName: "HR User",
			Groups:      []string{"hr"},
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return authURL, fmt.Sprintf("%s-%d", statePrefix, n), fmt.Sprintf("%s-%d", noncePrefix, n), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.Principal, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	user := m.DefaultUser
	if user.Username == "" {
		user = ports.Principal{Username: "hr_user", DisplayName: "HR User", Groups: []string{"hr"}}
	}
	user.Groups = append([]string(nil), user.Groups...)
	return user, nil
}

// RecordingDiagnostics collects reported failures for assertions. Safe for concurrent use.
type RecordingDiagnostics struct {
	mu       sync.Mutex
	failures []ports.SessionFailure
}

func (d *RecordingDiagnostics) ReportSessionFailure(_ context.Context, f ports.SessionFailure) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures = append(d.failures, f)
}

// Failures returns a copy of everything reported so far.
func (d *RecordingDiagnostics) Failures() []ports.SessionFailure {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ports.SessionFailure(nil), d.failures...)
}

// Identity is a convenience constructor for test identities.
func Identity(username string, role domainauth.Role) domainauth.Identity {
	return domainauth.Identity{Username: username, DisplayName: username, Role: role}
}
