package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/localspark/marketplace-backend/internal/handlers"
)

type RouterConfig struct {
	ProfileHandler    *handlers.ProfileHandler
	ViewHandler       *handlers.ViewHandler
	ModerationHandler *handlers.ModerationHandler
	MetricsHandler    *handlers.MetricsHandler
	AllowOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/profiles", cfg.ProfileHandler.Create)
		api.GET("/profiles", cfg.ProfileHandler.List)
		api.GET("/profiles/:id", cfg.ProfileHandler.Get)
		api.PATCH("/profiles/:id", cfg.ProfileHandler.Update)
		api.POST("/profiles/:id/retry", cfg.ProfileHandler.Retry)
		api.DELETE("/profiles/:id", cfg.ProfileHandler.Delete)

		api.POST("/profiles/:id/views", cfg.ViewHandler.RecordView)
		api.POST("/profiles/:id/bookings", cfg.ViewHandler.RecordBooking)

		api.POST("/profiles/:id/flags", cfg.ModerationHandler.Flag)
		api.POST("/profiles/:id/flags/resolve", cfg.ModerationHandler.Resolve)
		api.POST("/profiles/:id/flags/rewrite", cfg.ModerationHandler.IncrementRewrite)

		api.GET("/metrics/snapshot", cfg.MetricsHandler.Snapshot)
		api.GET("/leaderboard", cfg.MetricsHandler.Leaderboard)
	}

	return router
}
