package auth

// Package auth contains domain-level types for portal identities and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Role represents a portal authorization role.
// The set is closed: only the constants below are valid.
type Role string

const (
	// RoleHR is the standard access tier.
	RoleHR Role = "hr"
	// RoleAdmin is the elevated access tier.
	RoleAdmin Role = "admin"
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleHR, RoleAdmin:
		return true
	default:
		return false
	}
}

// Elevated reports whether r grants admin capability.
// Any new role tier must be classified here; unknown roles are never elevated.
func (r Role) Elevated() bool { return r == RoleAdmin }

// ErrInvalidIdentity is returned when an Identity violates its invariants.
var ErrInvalidIdentity = errors.New("invalid identity")

// Identity represents the authenticated principal of a browser profile.
// Admin capability is derived from Role and never stored separately.
type Identity struct {
	Username    string // unique, stable identifier
	DisplayName string // human-readable label; not used for access decisions
	Role        Role
}

// IsAdmin reports whether the identity holds elevated access.
func (i Identity) IsAdmin() bool { return i.Role.Elevated() }

// Validate checks the identity invariants.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidIdentity)
	}
	if !utf8.ValidString(i.Username) {
		return fmt.Errorf("%w: username is not valid UTF-8", ErrInvalidIdentity)
	}
	if !utf8.ValidString(i.DisplayName) {
		return fmt.Errorf("%w: display name is not valid UTF-8", ErrInvalidIdentity)
	}
	if !i.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, i.Role)
	}
	return nil
}

// Snapshot is the observable session state: the current identity, if any,
// and whether the initial hydration is still in flight.
type Snapshot struct {
	Identity *Identity
	Loading  bool
}

// Authenticated reports whether the snapshot carries an identity and hydration is done.
func (s Snapshot) Authenticated() bool { return !s.Loading && s.Identity != nil }

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	if s.Identity == nil {
		return Snapshot{Loading: s.Loading}
	}
	id := *s.Identity
	return Snapshot{Identity: &id, Loading: s.Loading}
}

// Decision is the outcome of a route guard evaluation.
type Decision int

const (
	// DecisionDefer means hydration has not resolved; render a neutral waiting state.
	DecisionDefer Decision = iota
	// DecisionAllow means the navigation may proceed.
	DecisionAllow
	// DecisionRedirectLogin means the profile must sign in first.
	DecisionRedirectLogin
	// DecisionRedirectForbidden means the identity lacks the required access.
	DecisionRedirectForbidden
)

func (d Decision) String() string {
	switch d {
	case DecisionDefer:
		return "defer"
	case DecisionAllow:
		return "allow"
	case DecisionRedirectLogin:
		return "redirect-to-login"
	case DecisionRedirectForbidden:
		return "redirect-to-forbidden"
	default:
		return "unknown"
	}
}
