package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/gamepile/gamepile-backend/internal/handlers"
	"github.com/gamepile/gamepile-backend/internal/middleware"
)

type RouterConfig struct {
	GameHandler    *handlers.GameHandler
	LibraryHandler *handlers.LibraryHandler
	WebhookHandler *handlers.WebhookHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("gamepile-backend"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/webhooks/igdb/:event", cfg.WebhookHandler.Receive)

	api := router.Group("/api")
	{
		api.GET("/games", cfg.GameHandler.Browse)
		api.GET("/games/:igdbID", cfg.GameHandler.GetByProviderID)
		api.GET("/games/slug/:slug", cfg.GameHandler.GetBySlug)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Library
	protected.GET("/library", cfg.LibraryHandler.List)
	protected.GET("/library/cache/:platform", cfg.LibraryHandler.Cache)
	protected.POST("/library/link/:platform", cfg.LibraryHandler.LinkAccount)
	protected.POST("/library/sync/:platform", cfg.LibraryHandler.Sync)
	protected.POST("/library/import/:platform", cfg.LibraryHandler.Import)
	protected.GET("/library/steam/login", cfg.LibraryHandler.SteamLogin)
	protected.GET("/library/steam/callback", cfg.LibraryHandler.SteamCallback)
	// Webhook admin
	protected.POST("/webhooks", cfg.WebhookHandler.Register)
	protected.GET("/webhooks", cfg.WebhookHandler.List)
	protected.DELETE("/webhooks/:id", cfg.WebhookHandler.Delete)
	protected.POST("/webhooks/:id/test", cfg.WebhookHandler.Test)

	return router
}
