package domain

import "time"

// UserRole decides what a user may do with tickets.
type UserRole string

const (
	UserRoleReporter UserRole = "reporter"
	UserRoleAdmin    UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == UserRoleReporter || r == UserRoleAdmin
}

// User is created once at bootstrap and never mutated by ticket operations.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         UserRole
	PasswordHash string
	CreatedAt    time.Time
}

// HasRole reports whether the user acts in the given role.
func (u *User) HasRole(role UserRole) bool {
	return u != nil && u.Role == role
}
