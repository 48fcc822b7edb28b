package devauth

// Package devauth provides a simple, config-driven AuthProvider for local development.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/ports"
)

// ErrUnknownUser is returned when the requested username is not in the directory.
var ErrUnknownUser = errors.New("dev auth: unknown user")

// User is one directory entry.
type User struct {
	Username    string
	DisplayName string
	Role        domainauth.Role
}

// Config controls the dev auth provider behavior.
type Config struct {
	// Users is the directory; at least one entry is required.
	Users []User
	// CallbackPath defaults to /auth/callback.
	CallbackPath string
}

// Provider implements ports.AuthProvider for local development.
// It short-circuits the OAuth flow by redirecting back to our own callback
// with the selected username as the code. Exchange looks that username up.
type Provider struct {
	users    map[string]User
	order    []string
	callback string
}

// ParseDirectory parses "username:Display Name:role" entries separated by ';'.
func ParseDirectory(entries string) ([]User, error) {
	var users []User
	for _, raw := range strings.Split(entries, ";") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("dev auth: entry %q must be username:display name:role", entry)
		}
		u := User{
			Username:    strings.TrimSpace(parts[0]),
			DisplayName: strings.TrimSpace(parts[1]),
			Role:        domainauth.Role(strings.ToLower(strings.TrimSpace(parts[2]))),
		}
		id := domainauth.Identity{Username: u.Username, DisplayName: u.DisplayName, Role: u.Role}
		if err := id.Validate(); err != nil {
			return nil, fmt.Errorf("dev auth: entry %q: %w", entry, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if len(cfg.Users) == 0 {
		return nil, errors.New("dev auth: at least one user is required")
	}
	p := &Provider{
		users:    make(map[string]User, len(cfg.Users)),
		callback: cfg.CallbackPath,
	}
	if p.callback == "" {
		p.callback = "/auth/callback"
	}
	for _, u := range cfg.Users {
		if _, dup := p.users[u.Username]; dup {
			return nil, fmt.Errorf("dev auth: duplicate user %q", u.Username)
		}
		p.users[u.Username] = u
		p.order = append(p.order, u.Username)
	}
	return p, nil
}

// Users returns the directory in configured order.
func (p *Provider) Users() []User {
	out := make([]User, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.users[name])
	}
	return out
}

// Accounts returns the directory as portal identities, in configured order.
func (p *Provider) Accounts() []domainauth.Identity {
	users := p.Users()
	out := make([]domainauth.Identity, 0, len(users))
	for _, u := range users {
		out = append(out, domainauth.Identity{Username: u.Username, DisplayName: u.DisplayName, Role: u.Role})
	}
	return out
}

// UsersByRole returns the directory sorted by role, then username.
func (p *Provider) UsersByRole() []User {
	out := p.Users()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Username < out[j].Username
	})
	return out
}

// Begin returns a local callback URL carrying the selected username, plus a
// cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if _, ok := p.users[in.LoginHint]; !ok {
		return "", "", "", fmt.Errorf("%w: %q", ErrUnknownUser, in.LoginHint)
	}
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{}
	q.Set("code", in.LoginHint)
	q.Set("state", state)
	return p.callback + "?" + q.Encode(), state, nonce, nil
}

// Exchange treats the code as a username (state/nonce validation handled by the handler).
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (ports.Principal, error) {
	u, ok := p.users[in.Code]
	if !ok {
		return ports.Principal{}, fmt.Errorf("%w: %q", ErrUnknownUser, in.Code)
	}
	return ports.Principal{Username: u.Username, DisplayName: u.DisplayName, Role: u.Role}, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	// Compute number of random bytes needed to produce at least n base64 URL chars
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		return s, nil
	}
	return s[:n], nil
}
