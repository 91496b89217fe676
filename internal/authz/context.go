package authz

import (
	"context"
	"net/http"

	"github.com/stanstork/rapidaid-api/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Role   models.UserRole
}

// Is reports whether the caller holds one of roles.
func (i Identity) Is(roles ...models.UserRole) bool {
	return models.HasAnyRole(i.Role, roles...)
}

// WithIdentity stores the caller's user id and role on the context.
func WithIdentity(ctx context.Context, userID string, role models.UserRole) context.Context {
	if userID == "" || !models.IsValidRole(role) {
		return ctx
	}
	return context.WithValue(ctx, identityKey, Identity{UserID: userID, Role: role})
}

// IdentityFromContext returns the caller stored by WithIdentity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

func IdentityFromRequest(r *http.Request) (Identity, bool) {
	return IdentityFromContext(r.Context())
}

// OptionalIdentity returns nil for anonymous requests.
func OptionalIdentity(r *http.Request) *Identity {
	id, ok := IdentityFromRequest(r)
	if !ok {
		return nil
	}
	return &id
}
