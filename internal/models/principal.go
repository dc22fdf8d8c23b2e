package models

// Role identifies the kind of principal a session token was issued to.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCollege Role = "college"
	RoleSchool  Role = "school"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCollege, RoleSchool:
		return true
	}
	return false
}

// Actor is the authenticated caller of a protected operation.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
