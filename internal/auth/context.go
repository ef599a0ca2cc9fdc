package auth

import (
	"context"

	"github.com/carhire/carhire/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// sessionContextKey is the context key for storing the Session.
	sessionContextKey contextKey = "session"
)

// ContextWithSession adds the Session to the context.
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext retrieves the Session from the context.
// Returns nil if not present.
func SessionFromContext(ctx context.Context) *model.Session {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok {
		return nil
	}
	return session
}

// MustSessionFromContext retrieves the Session from the context.
// Panics if not present (use only behind RequireSession).
func MustSessionFromContext(ctx context.Context) *model.Session {
	session := SessionFromContext(ctx)
	if session == nil {
		panic("session not found - ensure session middleware is applied")
	}
	return session
}

// UserIDFromContext returns the authenticated user ID, or "" if anonymous.
func UserIDFromContext(ctx context.Context) string {
	session := SessionFromContext(ctx)
	if session == nil {
		return ""
	}
	return session.UserID
}
