package handlers

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/khabaroff/eventdesk/src/metrics"
	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/services"
)

// RouterConfig carries the services and settings the HTTP surfaces are built from
type RouterConfig struct {
	Users         *services.UserService
	Auth          *services.AuthService
	Tokens        *services.TokenService
	Events        *services.EventService
	Registrations *services.RegistrationService
	Verification  *services.VerificationService
	Tracker       LoginTracker
	Health        HealthChecker

	Views   *template.Template
	Cookies *middleware.Cookies
	// LoginLimiter throttles login attempts on both surfaces
	LoginLimiter *middleware.IPRateLimiter

	Metrics        metrics.Recorder
	MetricsHandler http.Handler // nil disables /metrics

	CSRFKey        string
	SecureCookies  bool
	AllowedOrigins []string
}

// NewRouter builds the gin engine with every route. Callers wrap it in
// middleware.MethodOverride so HTML forms can reach PUT and DELETE routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.MetricsMiddleware(cfg.Metrics))

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
			ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.SetHTMLTemplate(cfg.Views)
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"message": services.MsgNotFound})
			return
		}
		c.String(http.StatusNotFound, services.MsgNotFound)
	})

	healthHandler := NewHealthHandler(cfg.Health)
	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/ready", healthHandler.HandleReady)
	router.GET("/info", healthHandler.HandleInfo)
	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	setupWebRoutes(router, cfg)
	setupAPIRoutes(router, cfg)
	return router
}

func setupWebRoutes(router *gin.Engine, cfg RouterConfig) {
	authHandler := NewWebAuthHandler(cfg.Auth, cfg.Tokens, cfg.Cookies, cfg.Tracker, cfg.Metrics)
	userHandler := NewUserAdminHandler(cfg.Users, cfg.Cookies)

	web := router.Group("/",
		middleware.CSRF(cfg.CSRFKey, cfg.SecureCookies),
		middleware.SessionAuth(cfg.Tokens),
	)
	web.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, adminHome)
	})
	web.GET("/login", authHandler.HandleShowLogin)
	web.POST("/login", cfg.LoginLimiter.Handler(), authHandler.HandleLogin)
	web.POST("/logout", authHandler.HandleLogout)

	// The list is readable by any signed-in user; everything else is admin-only
	// and answers anonymous callers with 403 rather than a login redirect.
	web.GET("/admin/users", middleware.RequireLogin(), userHandler.HandleIndex)

	admin := web.Group("/admin/users", middleware.AdminOnly())
	admin.GET("/create", userHandler.HandleCreate)
	admin.POST("", userHandler.HandleStore)
	admin.GET("/:id/edit", userHandler.HandleEdit)
	admin.PUT("/:id", userHandler.HandleUpdate)
	admin.DELETE("/:id", userHandler.HandleDestroy)
}

func setupAPIRoutes(router *gin.Engine, cfg RouterConfig) {
	authHandler := NewAPIAuthHandler(cfg.Users, cfg.Auth, cfg.Tokens, cfg.Verification, cfg.Tracker, cfg.Metrics)
	userHandler := NewAPIUserHandler(cfg.Users)
	eventHandler := NewEventHandler(cfg.Events, cfg.Registrations)
	adminOnly := middleware.AdminOnlyJSON()

	api := router.Group("/api")
	api.GET("/ping", authHandler.HandlePing)
	api.POST("/register", cfg.LoginLimiter.Handler(), authHandler.HandleRegister)
	api.POST("/login", cfg.LoginLimiter.Handler(), authHandler.HandleLogin)
	api.GET("/email/verify/:id/:hash", authHandler.HandleVerifyEmail)

	authed := api.Group("", middleware.BearerAuth(cfg.Tokens))
	authed.GET("/me", userHandler.HandleMe)
	authed.GET("/user", userHandler.HandleMe)
	authed.PUT("/me", userHandler.HandleUpdateMe)
	authed.POST("/logout", authHandler.HandleLogout)

	users := authed.Group("/users", adminOnly)
	users.GET("", userHandler.HandleList)
	users.GET("/:id", userHandler.HandleShow)
	users.POST("", userHandler.HandleStore)
	users.PUT("/:id", userHandler.HandleUpdate)
	users.DELETE("/:id", userHandler.HandleDestroy)

	events := authed.Group("/events")
	events.GET("", eventHandler.HandleIndex)
	events.GET("/upcoming", eventHandler.HandleUpcoming)
	events.GET("/past", eventHandler.HandlePast)
	events.GET("/filter", eventHandler.HandleFilter)
	events.GET("/:id", eventHandler.HandleShow)
	events.POST("", adminOnly, eventHandler.HandleStore)
	events.PUT("/:id", adminOnly, eventHandler.HandleUpdate)
	events.DELETE("/:id", adminOnly, eventHandler.HandleDestroy)

	events.POST("/:id/register", eventHandler.HandleRegister)
	events.DELETE("/:id/unregister", eventHandler.HandleUnregister)
	events.GET("/:id/users", adminOnly, eventHandler.HandleAttendees)
	events.DELETE("/:id/users/:user_id", adminOnly, eventHandler.HandleRemoveUser)
}
