package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resumehub/internal/api/middleware"
	"resumehub/internal/auth"
	"resumehub/internal/resume"
)

// RegisterRoutes wires the auth and resume endpoints onto the engine.
// redisClient may be nil; only login throttling depends on it.
func RegisterRoutes(
	router *gin.Engine,
	authService *auth.Service,
	store *resume.Store,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
	loginRateLimitPerHour int,
) {
	authHandler := NewAuthHandler(authService, redisClient, logger, loginRateLimitPerHour)
	resumeHandler := NewResumeHandler(store, logger)
	authMiddleware := middleware.AuthMiddleware(authService)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	resumeGroup := router.Group("/resume")
	resumeGroup.Use(authMiddleware)
	{
		resumeGroup.POST("", resumeHandler.Create)
		resumeGroup.GET("", resumeHandler.List)
		resumeGroup.GET("/:id", resumeHandler.Get)
		resumeGroup.PATCH("/:id", resumeHandler.Update)
		resumeGroup.DELETE("/:id", resumeHandler.Delete)
		resumeGroup.POST("/:id/improve", resumeHandler.Improve)
		resumeGroup.GET("/:id/history", resumeHandler.History)
	}
}
