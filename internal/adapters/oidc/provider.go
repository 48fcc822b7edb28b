package oidc

// Package oidc provides the OIDC/OAuth2 credential-issuing collaborator for the portal.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/target/portal-auth/internal/ports"
	"golang.org/x/oauth2"
)

// Default claim expressions (JMESPath over the raw claim set).
const (
	DefaultUsernameClaim    = "preferred_username || samaccountname || sub"
	DefaultDisplayNameClaim = "name || samaccountname"
	DefaultGroupsClaim      = "memberof"
)

// Provider implements ports.AuthProvider using OIDC/OAuth2.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	usernameExpr    string
	displayNameExpr string
	groupsExpr      string

	// go-oidc provider and verifier
	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string

	// JMESPath expressions evaluated against the ID token (then UserInfo) claims.
	UsernameClaim    string
	DisplayNameClaim string
	GroupsClaim      string

	HTTPClient *http.Client // Optional, defaults to a 30s client
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider creates a new OIDC provider.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	p := &Provider{
		httpClient:      config.HTTPClient,
		usernameExpr:    firstNonEmpty(config.UsernameClaim, DefaultUsernameClaim),
		displayNameExpr: firstNonEmpty(config.DisplayNameClaim, DefaultDisplayNameClaim),
		groupsExpr:      firstNonEmpty(config.GroupsClaim, DefaultGroupsClaim),
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	for _, expr := range []string{p.usernameExpr, p.displayNameExpr, p.groupsExpr} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile claim expression %q: %w", expr, err)
		}
	}

	// Initialize go-oidc provider and verifier (single discovery fetch)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       strings.Fields(config.Scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri stays the configured RedirectURL; the post-login target travels in our own cookie.
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	}
	if in.LoginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", in.LoginHint))
	}
	return p.config.AuthCodeURL(state, opts...), state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.Principal, error) {
	if in.Code == "" {
		return ports.Principal{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return ports.Principal{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return ports.Principal{}, errors.New("nonce is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return ports.Principal{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.claimsFromIDToken(ctx, token, in.Nonce)
	if err != nil {
		return ports.Principal{}, fmt.Errorf("extract id_token: %w", err)
	}
	principal := p.principalFromClaims(claims)

	// Fill missing fields from UserInfo
	if principal.Username == "" || len(principal.Groups) == 0 {
		ui, uiErr := p.userInfoClaims(ctx, token.AccessToken)
		if uiErr != nil {
			return ports.Principal{}, fmt.Errorf("get user info: %w", uiErr)
		}
		fillPrincipal(&principal, p.principalFromClaims(ui))
	}
	if principal.Username == "" {
		return ports.Principal{}, errors.New("no username claim in token or user info")
	}
	return principal, nil
}

func (p *Provider) claimsFromIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (map[string]any, error) {
	if !p.hasOpenIDScope() {
		return nil, nil
	}
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return nil, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if expectedNonce != "" && idTok.Nonce != expectedNonce {
		return nil, errors.New("invalid nonce")
	}
	var claims map[string]any
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	return claims, nil
}

func (p *Provider) userInfoClaims(ctx context.Context, accessToken string) (map[string]any, error) {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	var claims map[string]any
	if claimsErr := ui.Claims(&claims); claimsErr != nil {
		return nil, fmt.Errorf("decode user info: %w", claimsErr)
	}
	return claims, nil
}

// principalFromClaims evaluates the configured expressions. Missing or
// mistyped claims yield zero values rather than errors.
func (p *Provider) principalFromClaims(claims map[string]any) ports.Principal {
	if claims == nil {
		return ports.Principal{}
	}
	return ports.Principal{
		Username:    searchString(p.usernameExpr, claims),
		DisplayName: searchString(p.displayNameExpr, claims),
		Groups:      searchStrings(p.groupsExpr, claims),
	}
}

func fillPrincipal(dst *ports.Principal, src ports.Principal) {
	if dst.Username == "" {
		dst.Username = src.Username
	}
	if dst.DisplayName == "" {
		dst.DisplayName = src.DisplayName
	}
	if len(dst.Groups) == 0 {
		dst.Groups = src.Groups
	}
}

func searchString(expr string, data any) string {
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// searchStrings accepts either a list of strings or a single string claim.
func searchStrings(expr string, data any) []string {
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}

// hasOpenIDScope reports whether the configured scopes include "openid".
func (p *Provider) hasOpenIDScope() bool {
	for _, sc := range p.config.Scopes {
		if sc == "openid" {
			return true
		}
	}
	return false
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
