package http

import (
	"net/http"

	"txaudit/internal/domain/user"
	"txaudit/internal/shared/apperr"
	"txaudit/internal/shared/middleware"
)

type UserHandler struct {
	users *user.Service
}

func NewUserHandler(users *user.Service) *UserHandler {
	return &UserHandler{users: users}
}

// HandleMe returns the authenticated user.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthenticated("authentication required"))
		return
	}

	u, err := h.users.Get(r.Context(), caller.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}
