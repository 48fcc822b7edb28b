package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/ports"
	"github.com/target/portal-auth/internal/service"
)

// Temporary cookies that carry the sign-in flow between /auth/login and /auth/callback.
const (
	stateCookieName    = "oauth_state"
	nonceCookieName    = "oauth_nonce"
	redirectCookieName = "post_login_redirect"
	flowCookieMaxAge   = 600
)

// AuthServiceInterface defines the sign-in operations the handlers need.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, in ports.BeginInput) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (domainauth.Identity, error)
}

// AuthHandlers provides HTTP handlers for sign-in, sign-out, and session status.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	Navigation   *Navigation
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) home() string {
	if h.Navigation != nil {
		return h.Navigation.Home
	}
	return "/"
}

func (h *AuthHandlers) loginPath() string {
	if h.Navigation != nil {
		return h.Navigation.Login
	}
	return "/"
}

// Login starts the provider flow.
// GET /auth/login?redirect_uri=<optional>&user=<optional login hint>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	if redirectURI == h.loginPath() {
		redirectURI = h.home()
	}

	result, err := h.Svc.BeginLogin(r.Context(), ports.BeginInput{
		RedirectURL: redirectURI,
		LoginHint:   r.URL.Query().Get("user"),
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "begin login failed", slog.Any("error", err))
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	h.setFlowCookie(w, r, stateCookieName, result.State)
	h.setFlowCookie(w, r, nonceCookieName, result.Nonce)
	h.setFlowCookie(w, r, redirectCookieName, redirectURI)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the provider flow and signs the profile in.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(nonceCookieName)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	st, ok := AuthStateFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "no_profile",
			Err:     errors.New("request is not bound to a browser profile"),
		})
		return
	}

	id, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if errors.Is(err, service.ErrNoPortalAccess) {
		h.clearFlowCookies(w, r)
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "no_portal_access",
			Err:     err,
		})
		return
	}
	if err != nil {
		h.logger().WarnContext(r.Context(), "complete login failed", slog.Any("error", err))
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	if err := st.SignIn(r.Context(), id); err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "sign_in_failed",
			Err:     err,
		})
		return
	}
	h.logger().InfoContext(r.Context(), "signed in",
		slog.String("profile", ProfileIDFromContext(r.Context())),
		slog.String("username", id.Username),
		slog.String("role", string(id.Role)))

	redirectURI := h.postLoginRedirect(r)
	h.clearFlowCookies(w, r)
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Logout signs the profile out. It always succeeds.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if st, ok := AuthStateFromContext(r.Context()); ok {
		st.SignOut(r.Context())
	}

	target := h.loginPath()
	if isAJAX(r) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": target,
		})
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// statusUser is the JSON shape of an identity.
type statusUser struct {
	Username    string          `json:"username"`
	DisplayName string          `json:"displayName"`
	Role        domainauth.Role `json:"role"`
	IsAdmin     bool            `json:"isAdmin"`
}

type statusResponse struct {
	Loading       bool        `json:"loading"`
	Authenticated bool        `json:"authenticated"`
	User          *statusUser `json:"user,omitempty"`
}

func toStatusUser(id domainauth.Identity) *statusUser {
	return &statusUser{
		Username:    id.Username,
		DisplayName: id.DisplayName,
		Role:        id.Role,
		IsAdmin:     id.IsAdmin(),
	}
}

// Status returns the profile's session snapshot.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	snap := SnapshotFromRequest(r)
	resp := statusResponse{Loading: snap.Loading, Authenticated: snap.Authenticated()}
	if snap.Identity != nil {
		resp.User = toStatusUser(*snap.Identity)
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, resp)
}

func (h *AuthHandlers) setFlowCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   flowCookieMaxAge,
	})
}

// clearCookie mirrors the attributes used when setting so every browser drops it.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandlers) clearFlowCookies(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, r, stateCookieName)
	h.clearCookie(w, r, nonceCookieName)
	h.clearCookie(w, r, redirectCookieName)
}

func (h *AuthHandlers) postLoginRedirect(r *http.Request) string {
	c, err := r.Cookie(redirectCookieName)
	if err != nil {
		return h.home()
	}
	target := safeRedirectPath(c.Value)
	if target == h.loginPath() {
		return h.home()
	}
	return target
}
