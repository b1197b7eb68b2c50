package server

import (
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/rkilchmn/openrouter-free-scanner/internal/server/middleware"
	v1 "github.com/rkilchmn/openrouter-free-scanner/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler())
	s.router.Use(otelgin.Middleware("openrouter-free-proxy"))

	// Health check (public)
	healthHandler := v1.NewHealthHandler(s.tracker, s.journal)
	s.router.GET("/health", healthHandler.Health)

	// OpenAI-compatible surface
	api := s.router.Group("/v1")
	limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)
	api.Use(limiter.Middleware())
	{
		chatHandler := v1.NewChatHandler(s.engine)
		api.POST("/chat/completions", chatHandler.CreateCompletion)

		modelHandler := v1.NewModelHandler(s.cache)
		api.GET("/models", modelHandler.ListModels)
	}

	// Administrative surface
	admin := s.router.Group("/admin")
	{
		adminHandler := v1.NewAdminHandler(s.tracker)
		admin.POST("/health/reset", adminHandler.ResetHealth)
	}
}
