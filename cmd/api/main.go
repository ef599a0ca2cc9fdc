// Package main is the entrypoint for the car hire web server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/carhire/carhire/internal/cache"
	"github.com/carhire/carhire/internal/config"
	"github.com/carhire/carhire/internal/events"
	"github.com/carhire/carhire/internal/handler"
	"github.com/carhire/carhire/internal/metrics"
	"github.com/carhire/carhire/internal/middleware"
	"github.com/carhire/carhire/internal/repository"
	"github.com/carhire/carhire/internal/server"
	"github.com/carhire/carhire/internal/service"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Initialize services
	metricsRecorder := metrics.NewInMemory()

	var (
		publisher      service.EventPublisher = events.NoopPublisher{}
		eventPublisher *events.Publisher
	)
	if cfg.EventsEnabled {
		eventPublisher = events.NewPublisher(cacheClient.Client(), logger, metricsRecorder)
		publisher = eventPublisher
	}

	authService := service.NewAuthService(repo, cacheClient, cfg.SessionTTL, logger, metricsRecorder)
	inventoryService := service.NewInventoryService(repo, cfg.PlaceholderImageURL, logger, metricsRecorder)
	rentalService := service.NewRentalService(repo, publisher, logger, metricsRecorder)

	// Initialize handlers
	views, err := handler.NewViews()
	if err != nil {
		logger.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	cookie := middleware.CookieConfig{
		Name:   cfg.SessionCookieName,
		Secure: cfg.IsProduction(),
		TTL:    cfg.SessionTTL,
	}
	responder := handler.NewResponder(views, logger, cookie.Secure)

	authHandler := handler.NewAuthHandler(responder, authService, cookie)
	handlers := server.Handlers{
		Pages:   handler.New(responder),
		Health:  handler.NewHealthHandler(repo, cacheClient),
		Auth:    authHandler,
		Cars:    handler.NewCarHandler(responder, inventoryService, rentalService),
		Rentals: handler.NewRentalHandler(responder, rentalService),
		Admin:   handler.NewAdminHandler(responder, inventoryService, rentalService),
		Metrics: handler.NewMetricsHandler(metricsRecorder),
	}

	// Setup router
	r := server.NewRouter(server.RouterConfig{
		Logger:   logger,
		Handlers: handlers,
		Cookie:   cookie,
		RateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: cacheClient,
			Metrics: metricsRecorder,
			Enabled: cfg.RateLimitLoginEnabled,
			RPS:     cfg.RateLimitLoginRPS,
			Burst:   cfg.RateLimitLoginBurst,
		},
		Security:     middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxBodyBytes: cfg.MaxRequestBodySize,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})
	// Registered last so pending events drain before Redis closes.
	if eventPublisher != nil {
		srv.OnShutdown("events", eventPublisher.Close)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"events_enabled", cfg.EventsEnabled,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
