package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/target/portal-auth/internal/service"
)

// ProfileCookieName identifies the browser profile a request belongs to.
const ProfileCookieName = "portal_profile"

// profileCookieMaxAge keeps the profile for about a year of inactivity.
const profileCookieMaxAge = 365 * 24 * 60 * 60

// ProfileRegistry resolves a browser profile to its session manager.
// Get is used for profiles the browser sent back; Fresh for IDs minted on
// this request, which have no stored session yet.
type ProfileRegistry interface {
	Get(ctx context.Context, profileID string) *service.AuthState
	Fresh(profileID string) *service.AuthState
}

// ProfileConfig holds configuration for the Profile middleware.
type ProfileConfig struct {
	Registry     ProfileRegistry
	CookieDomain string
	Logger       *slog.Logger
}

// Profile returns a middleware that binds each request to a browser profile.
// A missing or malformed profile cookie is replaced with a freshly minted ID,
// which starts as an already resolved anonymous session for that browser.
func Profile(cfg ProfileConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var st *service.AuthState
			profileID, ok := profileFromCookie(r)
			if ok {
				st = cfg.Registry.Get(r.Context(), profileID)
			} else {
				profileID = uuid.NewString()
				setProfileCookie(w, r, cfg.CookieDomain, profileID)
				logger.DebugContext(r.Context(), "minted browser profile", slog.String("profile", profileID))
				st = cfg.Registry.Fresh(profileID)
			}

			ctx := WithAuthState(r.Context(), profileID, st)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// profileFromCookie returns the profile ID only when it is a canonical UUID.
func profileFromCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(ProfileCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil || id.String() != c.Value {
		return "", false
	}
	return c.Value, true
}

func setProfileCookie(w http.ResponseWriter, r *http.Request, domain, profileID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     ProfileCookieName,
		Value:    profileID,
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   profileCookieMaxAge,
	})
}
