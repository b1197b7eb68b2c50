package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rkilchmn/openrouter-free-scanner/internal/core/domain"
	"github.com/rkilchmn/openrouter-free-scanner/internal/logger"
	"github.com/rkilchmn/openrouter-free-scanner/pkg/api"
)

// ErrorHandler serializes errors attached by handlers into consistent
// response envelopes: RFC 9457 for Problems, an OpenAI-style error object
// for everything else. Raw upstream errors never reach the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if problem, ok := err.(*domain.Problem); ok {
			if problem.Log != nil {
				logger.Error("request failed", zap.Error(problem.Log))
			}
			c.JSON(problem.Status, problem)
			c.Abort()
			return
		}

		if appErr, ok := err.(*domain.Error); ok {
			if appErr.Log != nil {
				logger.Error("request failed", zap.Int("status", appErr.Code), zap.Error(appErr.Log))
			}
			c.JSON(appErr.Code, gin.H{
				"error": api.ErrorResponse{Code: appErr.Code, Message: appErr.Message},
			})
			c.Abort()
			return
		}

		logger.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": api.ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "An unexpected error occurred.",
			},
		})
		c.Abort()
	}
}
