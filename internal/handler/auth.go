package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/carhire/carhire/internal/auth"
	"github.com/carhire/carhire/internal/handler/dto"
	"github.com/carhire/carhire/internal/middleware"
	"github.com/carhire/carhire/internal/model"
	"github.com/carhire/carhire/internal/service"
)

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	*Responder
	svc    *service.AuthService
	cookie middleware.CookieConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(responder *Responder, svc *service.AuthService, cookie middleware.CookieConfig) *AuthHandler {
	return &AuthHandler{
		Responder: responder,
		svc:       svc,
		cookie:    cookie,
	}
}

// ResolveSession adapts Authenticate to middleware.SessionResolver.
// Invalid or expired tokens resolve to no session.
func (h *AuthHandler) ResolveSession(ctx context.Context, token string) (*model.Session, error) {
	sess, err := h.svc.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// LoginForm renders the login page. Logged-in callers are sent on.
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if sess := auth.SessionFromContext(r.Context()); sess != nil {
		http.Redirect(w, r, landingPath(sess), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, pageLogin, &Page{Title: "Log in"})
}

// Login verifies credentials and starts a session.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := dto.ParseLoginForm(r)
	if err != nil {
		h.errorPage(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	result, err := h.svc.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			h.render(w, r, http.StatusUnauthorized, pageLogin, &Page{
				Title: "Log in",
				Error: userMessage(service.ErrInvalidCredentials),
				Form:  dto.FormValues{Username: form.Username},
			})
			return
		}
		h.handleServiceError(w, r, err, "/login")
		return
	}

	// Drop any session the browser already held.
	if old := h.cookie.SessionToken(r); old != "" {
		if err := h.svc.Logout(r.Context(), old); err != nil {
			h.logger.Warn("failed to drop previous session",
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
	}

	h.cookie.SetSessionCookie(w, result.Token)
	h.redirect(w, r, landingPath(result.Session), FlashSuccess, "Welcome, "+result.Session.Username+"!")
}

// SignupForm renders the signup page.
// GET /signup
func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageSignup, &Page{Title: "Sign up"})
}

// Signup creates an account and sends the user to the login page.
// POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	form, err := dto.ParseSignupForm(r)
	if err != nil {
		h.errorPage(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	_, err = h.svc.Signup(r.Context(), form.Username, form.Password)
	switch {
	case err == nil:
		h.redirect(w, r, "/login", FlashSuccess, "Account created. You can now log in.")
	case errors.Is(err, service.ErrValidation):
		h.renderSignupError(w, r, http.StatusUnprocessableEntity, form, err)
	case errors.Is(err, service.ErrUsernameTaken):
		h.renderSignupError(w, r, http.StatusConflict, form, err)
	default:
		h.handleServiceError(w, r, err, "/signup")
	}
}

func (h *AuthHandler) renderSignupError(w http.ResponseWriter, r *http.Request, status int, form dto.SignupForm, err error) {
	h.render(w, r, status, pageSignup, &Page{
		Title: "Sign up",
		Error: userMessage(err),
		Form:  dto.FormValues{Username: form.Username},
	})
}

// Logout ends the session.
// GET, POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.cookie.SessionToken(r); token != "" {
		if err := h.svc.Logout(r.Context(), token); err != nil {
			h.logger.Error("failed to delete session",
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
	}

	h.cookie.ClearSessionCookie(w)
	h.redirect(w, r, "/", FlashInfo, "You have been logged out.")
}
