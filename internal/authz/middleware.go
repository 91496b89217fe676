package authz

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/stanstork/rapidaid-api/internal/models"
)

// RequireRole returns a middleware that lets through only authenticated
// callers holding one of roles. It must run after the JWT middleware.
func RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromRequest(r)
			if !ok {
				deny(w, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}
			if !id.Is(roles...) {
				deny(w, http.StatusForbidden, fmt.Sprintf("User role %s is not authorized to access this route", id.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoleHandler applies the role middleware inline when registering routes.
func RequireRoleHandler(next http.Handler, roles ...models.UserRole) http.Handler {
	return RequireRole(roles...)(next)
}

// RequireRoleIfAuthenticated checks roles only for callers that carry an
// identity; anonymous requests pass through.
func RequireRoleIfAuthenticated(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := IdentityFromRequest(r); ok && !id.Is(roles...) {
				deny(w, http.StatusForbidden, fmt.Sprintf("User role %s is not authorized to access this route", id.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": strings.TrimSpace(message),
	})
}
