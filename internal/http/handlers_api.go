package httpx

import (
	"errors"
	"net/http"
)

// APIHandlers serves the JSON endpoints behind the guards.
type APIHandlers struct {
	Directory AccountDirectory
}

// Me returns the signed-in identity.
// GET /api/me (general guard).
func (h *APIHandlers) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	WriteJSON(w, http.StatusOK, toStatusUser(id))
}

// Users lists the accounts with portal access.
// GET /api/admin/users (elevated guard).
func (h *APIHandlers) Users(w http.ResponseWriter, _ *http.Request) {
	users := make([]*statusUser, 0)
	if h.Directory != nil {
		for _, id := range h.Directory.Accounts() {
			users = append(users, toStatusUser(id))
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}
