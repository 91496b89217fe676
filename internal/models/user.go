package models

import "time"

type UserRole string

const (
	RoleDonor     UserRole = "donor"
	RoleVolunteer UserRole = "volunteer"
	RoleResponder UserRole = "responder"
)

var validRoles = map[UserRole]struct{}{
	RoleDonor:     {},
	RoleVolunteer: {},
	RoleResponder: {},
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role UserRole) bool {
	_, ok := validRoles[role]
	return ok
}

// HasAnyRole reports whether role matches one of allowed.
func HasAnyRole(role UserRole, allowed ...UserRole) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// UserRef is the public projection of a user embedded in other records.
type UserRef struct {
	ID   string   `json:"id"`
	Name string   `json:"name,omitempty"`
	Role UserRole `json:"role,omitempty"`
}
