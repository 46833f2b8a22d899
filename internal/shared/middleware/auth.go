package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"txaudit/internal/domain/user"
	"txaudit/internal/shared/auth"
)

type contextKey int

const callerKey contextKey = iota

// WithCaller returns a copy of ctx carrying the authenticated caller.
func WithCaller(ctx context.Context, c user.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFrom returns the caller stored by Auth.
func CallerFrom(ctx context.Context) (user.Caller, bool) {
	c, ok := ctx.Value(callerKey).(user.Caller)
	return c, ok
}

// Auth validates the bearer token and stores the resulting user.Caller in
// the request context. Requests without a valid token get 401.
func Auth(jwt *auth.JWT) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
				return
			}
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Invalid authorization header format")
				return
			}

			claims, err := jwt.Validate(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Invalid or expired token")
				return
			}

			caller := user.Caller{ID: claims.UserID, Role: user.Role(claims.Role)}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// RequireRole rejects callers whose role is not in roles with 403. It must
// run inside Auth.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
				return
			}
			if !slices.Contains(roles, caller.Role) {
				writeError(w, http.StatusForbidden, "authorization", "Insufficient role for this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}
