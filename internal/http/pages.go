package httpx

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
)

// Page template names.
const (
	PageLogin     = "login"
	PageForbidden = "forbidden"
	PageWaiting   = "waiting"
	PageRoute     = "route"
	PageUsers     = "users"
	PageNotFound  = "notfound"
)

var pageNames = []string{PageLogin, PageForbidden, PageWaiting, PageRoute, PageUsers, PageNotFound}

// PageData is the view model every page template receives.
type PageData struct {
	Title       string
	Identity    *domainauth.Identity
	Nav         []Route
	Current     string
	Home        string
	Route       *Route
	RedirectURI string
	Accounts    []domainauth.Identity
}

// Pages renders the server-side page templates. Each page is parsed together
// with layout.html, which wraps its "content" block.
type Pages struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewPages parses every page from fsys (layout.html plus one file per page).
func NewPages(fsys fs.FS, logger *slog.Logger) (*Pages, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pages{templates: make(map[string]*template.Template, len(pageNames)), logger: logger}
	for _, name := range pageNames {
		t, err := template.ParseFS(fsys, "layout.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		p.templates[name] = t
	}
	return p, nil
}

// Has reports whether a page template exists.
func (p *Pages) Has(name string) bool {
	_, ok := p.templates[name]
	return ok
}

// Render executes a page into a buffer before writing, so template errors
// never leave a half-written response.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, status int, name string, data PageData) {
	t, ok := p.templates[name]
	if !ok {
		p.logger.ErrorContext(r.Context(), "unknown page template", slog.String("page", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		p.logger.ErrorContext(r.Context(), "render page",
			slog.String("page", name),
			slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
