package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rkilchmn/openrouter-free-scanner/internal/health"
	"github.com/rkilchmn/openrouter-free-scanner/internal/logger"
)

type AdminHandler struct {
	tracker *health.Tracker
}

func NewAdminHandler(tracker *health.Tracker) *AdminHandler {
	return &AdminHandler{tracker: tracker}
}

// ResetHealth clears health state: all models, or just ?model=<id>.
func (h *AdminHandler) ResetHealth(c *gin.Context) {
	model := c.Query("model")
	if model != "" {
		h.tracker.Reset(model)
		logger.Info("health reset", zap.String("model", model))
		c.JSON(http.StatusOK, gin.H{"status": "reset", "model": model})
		return
	}

	h.tracker.ResetAll()
	logger.Info("health reset", zap.String("model", "all"))
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
