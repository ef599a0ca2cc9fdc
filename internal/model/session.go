package model

import "time"

// Session holds the authenticated caller for one request.
// It is injected into the request context by the session middleware.
type Session struct {
	UserID    string
	Username  string
	Role      string
	ExpiresAt time.Time
}

// IsAdmin returns true if the session belongs to an administrator.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// HasRole checks if the session satisfies role.
// Admin satisfies every role.
func (s *Session) HasRole(role string) bool {
	if s.Role == RoleAdmin {
		return true
	}
	return s.Role == role
}
