package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the sign-in provider used by the portal.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for sign-in.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock signs in against a configured directory (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"portal"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"portal"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`

	// JMESPath expressions over the token claims. Empty values use the provider defaults.
	UsernameClaim    string `env:"USERNAME_CLAIM"`
	DisplayNameClaim string `env:"DISPLAY_NAME_CLAIM"`
	GroupsClaim      string `env:"GROUPS_CLAIM"       envDefault:"memberof"`
}

// DevAuthConfig controls the mock sign-in directory.
// Used when AUTH_MODE=mock, which is only accepted in development mode.
type DevAuthConfig struct {
	// Users is a ';' separated list of "username:Display Name:role" entries.
	Users string `env:"USERS" envDefault:"hr_user:HR User:hr;admin_boss:Admin Boss:admin"`
}

// AuthConfig groups all sign-in configuration.
type AuthConfig struct {
	// Mode determines which sign-in provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	OAuth   OAuthConfig   `envPrefix:"OAUTH_"`
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminGroup is the directory group granting the admin role.
	AdminGroup string `env:"ADMIN_GROUP" envDefault:"portal-admins"`

	// HRGroup is the directory group granting the hr role.
	HRGroup string `env:"HR_GROUP" envDefault:"portal-hr"`
}

// Sanitize trims group names and claim expressions.
func (c *AuthConfig) Sanitize() {
	c.AdminGroup = strings.TrimSpace(c.AdminGroup)
	c.HRGroup = strings.TrimSpace(c.HRGroup)
	c.OAuth.UsernameClaim = strings.TrimSpace(c.OAuth.UsernameClaim)
	c.OAuth.DisplayNameClaim = strings.TrimSpace(c.OAuth.DisplayNameClaim)
	c.OAuth.GroupsClaim = strings.TrimSpace(c.OAuth.GroupsClaim)
}
