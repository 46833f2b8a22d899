package http

import (
	"encoding/json"
	"net/http"

	"txaudit/internal/domain/user"
	"txaudit/internal/shared/apperr"
	"txaudit/internal/shared/auth"
	"txaudit/internal/shared/logger"
)

const maxBodyBytes = 1 << 20

type AuthHandler struct {
	users *user.Service
	jwt   *auth.JWT
}

func NewAuthHandler(users *user.Service, jwt *auth.JWT) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// HandleLogin exchanges a username and password for a bearer token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, apperr.Validation("body", "invalid JSON"))
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthenticated) {
			log := logger.FromContext(r.Context())
			log.Warn().Str("username", req.Username).Msg("login rejected")
		}
		writeError(w, r, err)
		return
	}

	token, err := h.jwt.Generate(u.ID, string(u.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: u})
}
