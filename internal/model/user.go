// Package model defines domain entities for the application.
package model

import "time"

// Role constants for user authorization.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. Rentals reference it by ID.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never serialize
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin returns true if the user may manage inventory.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsValidRole reports whether role is a known role.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
