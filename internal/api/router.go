package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/app"
	iauth "github.com/khadimfall/magal-events/internal/auth"
	"github.com/khadimfall/magal-events/internal/handlers"
	"github.com/khadimfall/magal-events/internal/middleware"
	"github.com/khadimfall/magal-events/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	auditService, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}

	authHandler, err := handlers.NewAuthHandler(db, jwt, auditService)
	if err != nil {
		return nil, err
	}
	eventHandler, err := handlers.NewEventHandler(db, auditService)
	if err != nil {
		return nil, err
	}
	signupHandler, err := handlers.NewSignupHandler(db, auditService)
	if err != nil {
		return nil, err
	}
	pointHandler, err := handlers.NewPointHandler(db, auditService)
	if err != nil {
		return nil, err
	}
	favoriteHandler, err := handlers.NewFavoriteHandler(db)
	if err != nil {
		return nil, err
	}
	notificationHandler, err := handlers.NewNotificationHandler(db, auditService)
	if err != nil {
		return nil, err
	}
	auditHandler, err := handlers.NewAuditHandler(db)
	if err != nil {
		return nil, err
	}
	imageHandler, err := handlers.NewImageHandler(cfg.Uploads.Dir)
	if err != nil {
		return nil, err
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Uploaded images are served as static files
	r.Static("/uploads", imageHandler.Dir())

	// Protected routes
	requireAuth := middleware.Auth(jwt)
	requireAdmin := middleware.RequireAdmin()

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	// Events: catalog reads for everyone, mutations for admins
	events := api.Group("/events")
	{
		events.GET("", eventHandler.List)
		events.GET("/:id", eventHandler.Get)
		events.POST("", requireAdmin, eventHandler.Create)
		events.PATCH("/:id", requireAdmin, eventHandler.Update)
		events.DELETE("/:id", requireAdmin, eventHandler.Delete)

		events.POST("/:id/signup", signupHandler.SignUp)
		events.DELETE("/:id/signup", signupHandler.Cancel)
	}
	api.GET("/signups/me", signupHandler.ListMine)

	// Points of interest
	points := api.Group("/points")
	{
		points.GET("", pointHandler.List)
		points.GET("/:id", pointHandler.Get)
		points.POST("", requireAdmin, pointHandler.Create)
		points.PATCH("/:id", requireAdmin, pointHandler.Update)
		points.DELETE("/:id", requireAdmin, pointHandler.Delete)

		points.POST("/:id/favorite", favoriteHandler.Add)
		points.DELETE("/:id/favorite", favoriteHandler.Remove)
	}
	api.GET("/favorites/me", favoriteHandler.ListMine)

	// Notifications
	notifications := api.Group("/notifications")
	{
		notifications.GET("/me", notificationHandler.ListMine)
		notifications.GET("/me/unread_count", notificationHandler.UnreadCount)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/read_all", notificationHandler.MarkAllRead)

		notifications.GET("", requireAdmin, notificationHandler.ListAll)
		notifications.POST("/broadcast", requireAdmin, notificationHandler.Broadcast)
		notifications.DELETE("/:id", requireAdmin, notificationHandler.Delete)
	}

	// Users and audit trail (admin)
	api.GET("/users", requireAdmin, authHandler.ListUsers)
	api.GET("/audit", requireAdmin, auditHandler.List)

	// Image uploads (admin)
	api.POST("/images", requireAdmin, imageHandler.Upload)
	api.DELETE("/images/:name", requireAdmin, imageHandler.Delete)

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
