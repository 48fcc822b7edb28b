// Package guard implements the route access decisions evaluated on every navigation.
//
// Guards are pure, total functions over a session snapshot. They never mutate
// state and never fail: malformed identity data reduces access instead of
// granting it.
package guard

import (
	"fmt"
	"strings"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
)

// Level names the access tier a route requires.
type Level string

const (
	// LevelPublic routes are always reachable.
	LevelPublic Level = "public"
	// LevelGeneral routes require any signed-in identity.
	LevelGeneral Level = "general"
	// LevelElevated routes require an admin identity.
	LevelElevated Level = "elevated"
)

// ParseLevel converts a manifest value into a Level.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelPublic, LevelGeneral, LevelElevated:
		return l, nil
	case "":
		return LevelPublic, nil
	default:
		return "", fmt.Errorf("unknown guard level %q (valid options: public, general, elevated)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for Level.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// General protects pages that require authentication.
func General(s domainauth.Snapshot) domainauth.Decision {
	if s.Loading {
		return domainauth.DecisionDefer
	}
	if s.Identity == nil || s.Identity.Validate() != nil {
		return domainauth.DecisionRedirectLogin
	}
	return domainauth.DecisionAllow
}

// Elevated protects admin-only pages. In route nesting it always runs after General.
func Elevated(s domainauth.Snapshot) domainauth.Decision {
	if s.Loading {
		return domainauth.DecisionDefer
	}
	if s.Identity == nil {
		return domainauth.DecisionRedirectLogin
	}
	if s.Identity.Validate() != nil || !s.Identity.IsAdmin() {
		return domainauth.DecisionRedirectForbidden
	}
	return domainauth.DecisionAllow
}

// Evaluate runs the guard for a single level.
func Evaluate(level Level, s domainauth.Snapshot) domainauth.Decision {
	switch level {
	case LevelPublic:
		return domainauth.DecisionAllow
	case LevelGeneral:
		return General(s)
	case LevelElevated:
		return Elevated(s)
	default:
		// Unknown levels never grant access; treat as the strictest tier.
		return Elevated(s)
	}
}

// Chain evaluates nested guards outer-first and returns the first decision that is not allow.
func Chain(s domainauth.Snapshot, levels ...Level) domainauth.Decision {
	for _, level := range levels {
		if d := Evaluate(level, s); d != domainauth.DecisionAllow {
			return d
		}
	}
	return domainauth.DecisionAllow
}

// Nesting returns the guard chain a route of the given level is wrapped in.
func Nesting(level Level) []Level {
	switch level {
	case LevelGeneral:
		return []Level{LevelGeneral}
	case LevelElevated:
		return []Level{LevelGeneral, LevelElevated}
	default:
		return nil
	}
}
