package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/khabaroff/eventdesk/src/config"
	"github.com/khabaroff/eventdesk/src/database"
	"github.com/khabaroff/eventdesk/src/handlers"
	"github.com/khabaroff/eventdesk/src/logging"
	"github.com/khabaroff/eventdesk/src/metrics"
	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/repositories"
	"github.com/khabaroff/eventdesk/src/services"
	"github.com/khabaroff/eventdesk/src/templates"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logging
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	log.Info().
		Int("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Str("version", handlers.Version).
		Msg("starting server")

	// Initialize database (migrations run on connect)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	log.Info().Msg("database connected")

	// Metrics
	var recorder metrics.Recorder = metrics.Nop{}
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewCollector(registry)
		metricsHandler = metrics.Handler(registry)
		log.Info().Msg("prometheus metrics enabled on /metrics")
	}

	// Analytics
	analyticsService, err := services.NewAnalyticsService(services.AnalyticsConfig{
		PostHogAPIKey: cfg.PostHogAPIKey,
		PostHogHost:   cfg.PostHogHost,
		Enabled:       cfg.PostHogEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analytics service")
	}
	defer analyticsService.Close()

	if analyticsService.Enabled() {
		log.Info().Str("host", cfg.PostHogHost).Msg("PostHog analytics enabled")
	} else {
		log.Info().Msg("PostHog analytics disabled")
	}

	// Repositories
	pool := db.GetPool()
	userRepo := repositories.NewUserRepository(pool)
	eventRepo := repositories.NewEventRepository(pool)
	registrationRepo := repositories.NewRegistrationRepository(pool)
	tokenRepo := repositories.NewTokenRepository(pool)

	// Services
	hasher := services.NewPasswordHasher(cfg.BcryptCost)
	validator := services.NewValidator(services.PasswordPolicy{
		MinLength:        cfg.PasswordMinLength,
		RequireMixedCase: cfg.PasswordRequireMixedCase,
		RequireNumbers:   cfg.PasswordRequireNumbers,
		RequireSymbols:   cfg.PasswordRequireSymbols,
	})

	userService := services.NewUserService(userRepo, hasher, validator).
		WithTracker(analyticsService).
		WithMetrics(recorder)
	authService, err := services.NewAuthService(userRepo, hasher, cfg.RequireVerifiedEmail)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth service")
	}
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.SessionTTL, cfg.APITokenTTL, tokenRepo, userRepo)
	eventService := services.NewEventService(eventRepo, validator)
	registrationService := services.NewRegistrationService(eventRepo, registrationRepo, userRepo).
		WithTracker(analyticsService).
		WithMetrics(recorder)

	var mailer services.Mailer = services.LogMailer{}
	if cfg.MailgunAPIKey != "" && cfg.MailgunDomain != "" {
		mailer = services.NewEmailService(
			cfg.MailgunDomain,
			cfg.MailgunAPIKey,
			cfg.MailgunFromEmail,
			cfg.MailgunFromName,
		)
		log.Info().Str("domain", cfg.MailgunDomain).Msg("Mailgun email service initialized")
	} else {
		log.Warn().Msg("Mailgun credentials not configured - verification links will be logged")
	}
	verificationService := services.NewVerificationService(
		userRepo,
		services.NewURLSigner(cfg.JWTSecret),
		mailer,
		cfg.AppURL,
		cfg.VerificationLinkTTL,
	)

	// Auto-seed admin user on first run (if ADMIN_EMAIL and ADMIN_PASSWORD are set)
	startup, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if admin, err := userService.EnsureAdmin(startup, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Error().Err(err).Msg("failed to create initial admin user")
	} else if admin != nil {
		log.Info().Str("email", admin.Email).Msg("initial admin user created")
	}
	if purged, err := tokenService.PurgeExpired(startup); err != nil {
		log.Warn().Err(err).Msg("failed to purge expired API tokens")
	} else if purged > 0 {
		log.Info().Int64("purged", purged).Msg("purged expired API tokens")
	}
	cancel()

	// HTML views
	views, err := templates.LoadViews(handlers.ViewFuncs())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load templates")
	}

	cookieKey := sha256.Sum256([]byte("flash:" + cfg.CSRFKey + cfg.JWTSecret))
	cookies := middleware.NewCookies(cookieKey[:], cfg.SecureCookies)

	// Login and registration throttling (per client IP)
	loginLimiter := middleware.NewIPRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: 10,
		Burst:             5,
	})
	defer loginLimiter.Stop()

	router := handlers.NewRouter(handlers.RouterConfig{
		Users:          userService,
		Auth:           authService,
		Tokens:         tokenService,
		Events:         eventService,
		Registrations:  registrationService,
		Verification:   verificationService,
		Tracker:        analyticsService,
		Health:         db,
		Views:          views,
		Cookies:        cookies,
		LoginLimiter:   loginLimiter,
		Metrics:        recorder,
		MetricsHandler: metricsHandler,
		CSRFKey:        cfg.CSRFKey,
		SecureCookies:  cfg.SecureCookies,
		AllowedOrigins: splitOrigins(cfg.AllowedOrigins),
	})

	// Create HTTP server with timeouts (protects from Slowloris)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           middleware.MethodOverride(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Graceful shutdown with timeout
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server shut down successfully")
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
