// Package handler provides HTTP request handlers for the car hire pages.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/carhire/carhire/internal/auth"
	"github.com/carhire/carhire/internal/middleware"
	"github.com/carhire/carhire/internal/model"
	"github.com/carhire/carhire/internal/service"
)

// Responder renders pages and maps service errors to responses.
// Page handlers embed it.
type Responder struct {
	views  *Views
	logger *slog.Logger
	secure bool
	now    func() time.Time
}

// NewResponder creates a Responder. secureCookies marks flash cookies Secure.
func NewResponder(views *Views, logger *slog.Logger, secureCookies bool) *Responder {
	return &Responder{
		views:  views,
		logger: logger,
		secure: secureCookies,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// render writes page name with status. The caller's session and any pending
// flash message are filled in.
func (rs *Responder) render(w http.ResponseWriter, r *http.Request, status int, name string, page *Page) {
	if page.Session == nil {
		page.Session = auth.SessionFromContext(r.Context())
	}
	if page.Flash == nil {
		page.Flash = popFlash(w, r, rs.secure)
	}

	if err := rs.views.Render(w, status, name, page); err != nil {
		rs.logger.Error("render_failed",
			"page", name,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// errorPage renders the error template.
func (rs *Responder) errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	rs.render(w, r, status, pageError, &Page{
		Title:   http.StatusText(status),
		Message: message,
	})
}

// redirect sends a 303 to target with a flash message for the next page.
func (rs *Responder) redirect(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	if message != "" {
		setFlash(w, rs.secure, kind, message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleServiceError maps a service error to a response.
// Conflicts are soft failures: a warning flash and a redirect to back.
func (rs *Responder) handleServiceError(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		rs.errorPage(w, r, http.StatusUnauthorized, "Please log in to continue.")
	case errors.Is(err, service.ErrForbidden):
		rs.errorPage(w, r, http.StatusForbidden, userMessage(err))
	case errors.Is(err, service.ErrNotFound):
		rs.errorPage(w, r, http.StatusNotFound, userMessage(err))
	case errors.Is(err, service.ErrConflict):
		rs.redirect(w, r, back, FlashWarning, userMessage(err))
	case errors.Is(err, service.ErrValidation):
		rs.errorPage(w, r, http.StatusUnprocessableEntity, userMessage(err))
	default:
		rs.logger.Error("internal_error",
			"error", err,
			"endpoint", r.Method+" "+r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		rs.errorPage(w, r, http.StatusInternalServerError, "Something went wrong on our side. Please try again.")
	}
}

// userMessage turns an error message into a sentence for display.
func userMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(first)) + msg[size:] + "."
}

// landingPath is where a freshly authenticated session goes.
func landingPath(sess *model.Session) string {
	if sess != nil && sess.IsAdmin() {
		return "/admin"
	}
	return "/dashboard"
}

// Handler serves pages that need no service.
type Handler struct {
	*Responder
}

// New creates a new Handler instance.
func New(responder *Responder) *Handler {
	return &Handler{Responder: responder}
}

// Home renders the landing page.
// GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageHome, &Page{Title: "Welcome"})
}

// Dashboard sends users to the car list.
// GET /dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/cars", http.StatusSeeOther)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusMethodNotAllowed, "That action is not supported here.")
}
