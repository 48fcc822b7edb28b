// Package portal provides embedded assets for the portal server.
package portal

import "embed"

// TemplateFS holds the server-rendered pages.
//
//go:embed frontend/templates
var TemplateFS embed.FS

// NavigationYAML is the route manifest loaded by the HTTP layer at startup.
//
//go:embed frontend/navigation.yaml
var NavigationYAML []byte
