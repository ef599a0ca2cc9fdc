package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/carhire/carhire/internal/auth"
	"github.com/carhire/carhire/internal/model"
)

// SessionResolver resolves a session token.
// It returns nil, nil when the token does not name a live session.
type SessionResolver func(ctx context.Context, token string) (*model.Session, error)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// SetSessionCookie issues the session cookie.
func (c CookieConfig) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func (c CookieConfig) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionToken returns the raw session token from the request, if any.
func (c CookieConfig) SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger  *slog.Logger
	Resolve SessionResolver
	Cookie  CookieConfig
}

// Session loads the caller's session from the session cookie and stores it
// in the request context. Anonymous requests pass through untouched; use
// RequireSession to reject them.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cfg.Cookie.SessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := cfg.Resolve(r.Context(), token)
			if err != nil {
				cfg.Logger.Error("session lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			if sess == nil {
				// Stale or forged cookie
				cfg.Cookie.ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			recordSession(r.Context(), sess)
			ctx := auth.ContextWithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests without a session with 401.
// Must be applied after Session.
func RequireSession(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.SessionFromContext(r.Context()) == nil {
				logger.Warn("authentication required",
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeErrorPage(w, http.StatusUnauthorized, "Please log in to continue.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose session lacks role.
// No session yields 401; the wrong role yields 403.
func RequireRole(logger *slog.Logger, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := auth.SessionFromContext(r.Context())
			if sess == nil {
				writeErrorPage(w, http.StatusUnauthorized, "Please log in to continue.")
				return
			}

			if !sess.HasRole(role) {
				logger.Warn("insufficient role",
					slog.String("user_id", sess.UserID),
					slog.String("role", sess.Role),
					slog.String("required_role", role),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeErrorPage(w, http.StatusForbidden, "You do not have permission to access this page.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience middleware for the admin role.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, model.RoleAdmin)
}
