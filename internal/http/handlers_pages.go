package httpx

import (
	"errors"
	"net/http"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
)

// AccountDirectory lists the accounts known to the sign-in provider.
type AccountDirectory interface {
	Accounts() []domainauth.Identity
}

// PageHandlers renders the portal pages.
type PageHandlers struct {
	Pages      *Pages
	Navigation *Navigation
	// Directory is optional; when set the login page offers its accounts.
	Directory AccountDirectory
}

func (h *PageHandlers) accounts() []domainauth.Identity {
	if h.Directory == nil {
		return nil
	}
	return h.Directory.Accounts()
}

func (h *PageHandlers) baseData(r *http.Request, title string) PageData {
	snap := SnapshotFromRequest(r)
	data := PageData{
		Title:   title,
		Current: r.URL.Path,
		Home:    h.Navigation.Home,
	}
	if snap.Authenticated() {
		data.Identity = snap.Identity
		data.Nav = h.Navigation.Visible(snap)
	}
	return data
}

// Login renders the sign-in page. Signed-in profiles go straight home.
// GET /.
func (h *PageHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if SnapshotFromRequest(r).Authenticated() {
		http.Redirect(w, r, h.Navigation.Home, http.StatusSeeOther)
		return
	}
	data := h.baseData(r, "Sign in")
	data.RedirectURI = safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	data.Accounts = h.accounts()
	h.Pages.Render(w, r, http.StatusOK, PageLogin, data)
}

// Forbidden renders the access denied page.
// GET /403.
func (h *PageHandlers) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.Pages.Render(w, r, http.StatusForbidden, PageForbidden, h.baseData(r, "Access denied"))
}

// NotFound answers any path no route claims. Browsers get the layout page,
// API clients a JSON error.
func (h *PageHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("no such page"),
		})
		return
	}
	h.Pages.Render(w, r, http.StatusNotFound, PageNotFound, h.baseData(r, "Page not found"))
}

// Route returns the handler for a guarded manifest route.
func (h *PageHandlers) Route(rt Route) http.Handler {
	name := rt.Template
	if !h.Pages.Has(name) {
		name = PageRoute
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := h.baseData(r, rt.Title)
		data.Route = &rt
		if name == PageUsers {
			data.Accounts = h.accounts()
		}
		h.Pages.Render(w, r, http.StatusOK, name, data)
	})
}
