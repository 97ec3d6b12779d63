package auth

import "github.com/google/uuid"

// Role identifies the coarse access level of an authenticated actor.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleClient Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleClient:
		return true
	}
	return false
}

// Principal is an authenticated actor issuing a request. The authentication
// collaborator produces it; the order lifecycle core only consumes it.
type Principal struct {
	ID   uuid.UUID
	Role Role
}
