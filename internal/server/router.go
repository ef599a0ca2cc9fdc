package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/carhire/carhire/internal/handler"
	"github.com/carhire/carhire/internal/middleware"
)

// Handlers groups the page handlers mounted by NewRouter.
type Handlers struct {
	Pages   *handler.Handler
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Cars    *handler.CarHandler
	Rentals *handler.RentalHandler
	Admin   *handler.AdminHandler
	Metrics *handler.MetricsHandler
}

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Logger       *slog.Logger
	Handlers     Handlers
	Cookie       middleware.CookieConfig
	RateLimit    middleware.RateLimitConfig
	Security     middleware.SecurityConfig
	MaxBodyBytes int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := cfg.Handlers
	logger := cfg.Logger

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(cfg.Security))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))
	}

	// Probes bypass sessions.
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(middleware.SessionConfig{
			Logger:  logger,
			Resolve: h.Auth.ResolveSession,
			Cookie:  cfg.Cookie,
		}))

		r.Get("/", h.Pages.Home)

		// Credential forms, rate limited per IP on submit
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitLogin(cfg.RateLimit))
			r.Get("/login", h.Auth.LoginForm)
			r.Post("/login", h.Auth.Login)
			r.Get("/signup", h.Auth.SignupForm)
			r.Post("/signup", h.Auth.Signup)
		})

		// Any logged-in user
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(logger))
			r.Get("/logout", h.Auth.Logout)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/dashboard", h.Pages.Dashboard)
			r.Get("/cars", h.Cars.List)
			r.Post("/cars/{id}/rent", h.Cars.Rent)
			r.Get("/rentals", h.Rentals.List)
			r.Post("/rentals/{id}/return", h.Rentals.Return)
		})

		// Admins only
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logger))
			r.Get("/", h.Admin.Index)
			r.Get("/cars", h.Admin.Cars)
			r.Post("/cars/add", h.Admin.AddCar)
			r.Post("/cars/{id}/delete", h.Admin.DeleteCar)
			r.Get("/rentals", h.Admin.Rentals)
			r.Get("/metrics", h.Metrics.Metrics)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.Pages.NotFound)
	r.MethodNotAllowed(h.Pages.MethodNotAllowed)

	return r
}
