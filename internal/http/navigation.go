package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/domain/guard"
)

// Route is one guarded page in the navigation manifest.
type Route struct {
	Path        string      `yaml:"path"`
	Title       string      `yaml:"title"`
	Guard       guard.Level `yaml:"guard"`
	Template    string      `yaml:"template"`
	Description string      `yaml:"description"`
}

// Navigation is the parsed route manifest.
type Navigation struct {
	Login     string  `yaml:"login"`
	Forbidden string  `yaml:"forbidden"`
	Home      string  `yaml:"home"`
	Routes    []Route `yaml:"routes"`
}

// LoadNavigation parses and validates a manifest. Unknown keys, unknown guard
// levels, and duplicate paths are rejected.
func LoadNavigation(data []byte) (*Navigation, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var nav Navigation
	if err := dec.Decode(&nav); err != nil {
		return nil, fmt.Errorf("decode navigation manifest: %w", err)
	}
	if err := nav.normalize(); err != nil {
		return nil, fmt.Errorf("invalid navigation manifest: %w", err)
	}
	return &nav, nil
}

func (n *Navigation) normalize() error {
	if n.Login == "" {
		n.Login = "/"
	}
	if n.Forbidden == "" {
		n.Forbidden = "/403"
	}
	for _, p := range []string{n.Login, n.Forbidden} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("path %q must start with /", p)
		}
	}
	if n.Login == n.Forbidden {
		return errors.New("login and forbidden paths must differ")
	}

	seen := map[string]bool{n.Login: true, n.Forbidden: true}
	for i := range n.Routes {
		rt := &n.Routes[i]
		if !strings.HasPrefix(rt.Path, "/") {
			return fmt.Errorf("route path %q must start with /", rt.Path)
		}
		if seen[rt.Path] {
			return fmt.Errorf("duplicate route path %q", rt.Path)
		}
		seen[rt.Path] = true
		if rt.Guard == "" {
			rt.Guard = guard.LevelPublic
		}
		if rt.Template == "" {
			rt.Template = "route"
		}
		if rt.Title == "" {
			rt.Title = rt.Path
		}
	}

	if n.Home == "" {
		for _, rt := range n.Routes {
			if rt.Guard == guard.LevelGeneral {
				n.Home = rt.Path
				break
			}
		}
	}
	if n.Home == "" {
		n.Home = n.Login
	}
	return nil
}

// Route returns the manifest entry for path.
func (n *Navigation) Route(path string) (Route, bool) {
	for _, rt := range n.Routes {
		if rt.Path == path {
			return rt, true
		}
	}
	return Route{}, false
}

// Visible returns the routes the snapshot would be allowed to enter, in manifest order.
func (n *Navigation) Visible(s domainauth.Snapshot) []Route {
	var out []Route
	for _, rt := range n.Routes {
		if guard.Chain(s, guard.Nesting(rt.Guard)...) == domainauth.DecisionAllow {
			out = append(out, rt)
		}
	}
	return out
}
