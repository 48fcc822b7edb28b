package devauth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/ports"
)

const testDirectory = "hr_user:HR User:hr; admin_boss:Admin Boss:admin"

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	users, err := ParseDirectory(testDirectory)
	if err != nil {
		t.Fatalf("ParseDirectory error: %v", err)
	}
	prov, err := NewProvider(Config{Users: users})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	return prov
}

func TestProvider_BeginAndExchange(t *testing.T) {
	prov := newTestProvider(t)
	authURL, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/", LoginHint: "admin_boss"})
	if err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	if !strings.HasPrefix(authURL, "/auth/callback?") {
		t.Fatalf("unexpected authURL: %s", authURL)
	}
	if state == "" || nonce == "" {
		t.Fatal("state and nonce should be generated")
	}
	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse authURL: %v", err)
	}
	if u.Query().Get("state") != state {
		t.Fatalf("callback state mismatch: %s", authURL)
	}

	p, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: u.Query().Get("code"), State: state, Nonce: nonce})
	if err != nil {
		t.Fatalf("Exchange error: %v", err)
	}
	if p.Username != "admin_boss" || p.DisplayName != "Admin Boss" || p.Role != domainauth.RoleAdmin {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestProvider_UnknownUser(t *testing.T) {
	prov := newTestProvider(t)
	if _, _, _, err := prov.Begin(context.Background(), ports.BeginInput{LoginHint: "nobody"}); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser from Begin, got %v", err)
	}
	if _, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "nobody"}); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser from Exchange, got %v", err)
	}
}

func TestParseDirectory(t *testing.T) {
	users, err := ParseDirectory(testDirectory + ";;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[1].Username != "admin_boss" || users[1].Role != domainauth.RoleAdmin {
		t.Fatalf("unexpected users: %+v", users)
	}

	bad := []string{
		"hr_user:HR User",
		"hr_user:HR User:manager",
		":Nobody:hr",
	}
	for _, entry := range bad {
		if _, err := ParseDirectory(entry); err == nil {
			t.Errorf("expected error for %q", entry)
		}
	}
}

func TestNewProvider_Validation(t *testing.T) {
	if _, err := NewProvider(Config{}); err == nil {
		t.Fatal("expected error for empty directory")
	}
	dup := []User{{Username: "a", Role: domainauth.RoleHR}, {Username: "a", Role: domainauth.RoleAdmin}}
	if _, err := NewProvider(Config{Users: dup}); err == nil {
		t.Fatal("expected error for duplicate user")
	}
}

func TestProvider_UsersOrder(t *testing.T) {
	prov := newTestProvider(t)
	users := prov.Users()
	if users[0].Username != "hr_user" {
		t.Fatalf("Users should keep configured order, got %+v", users)
	}
	byRole := prov.UsersByRole()
	if byRole[0].Role != domainauth.RoleAdmin {
		t.Fatalf("UsersByRole should sort admin before hr, got %+v", byRole)
	}
}

func TestProvider_CustomCallback(t *testing.T) {
	prov, err := NewProvider(Config{Users: []User{{Username: "u", Role: domainauth.RoleHR}}, CallbackPath: "/cb"})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	authURL, _, _, err := prov.Begin(context.Background(), ports.BeginInput{LoginHint: "u"})
	if err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	if !strings.HasPrefix(authURL, "/cb?") {
		t.Fatalf("unexpected authURL: %s", authURL)
	}
}

func TestProvider_Accounts(t *testing.T) {
	prov := newTestProvider(t)
	accounts := prov.Accounts()
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[1].Username != "admin_boss" || !accounts[1].IsAdmin() {
		t.Fatalf("unexpected second account: %+v", accounts[1])
	}
	for _, a := range accounts {
		if err := a.Validate(); err != nil {
			t.Fatalf("account %q invalid: %v", a.Username, err)
		}
	}
}
