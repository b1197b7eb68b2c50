package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rkilchmn/openrouter-free-scanner/internal/health"
	"github.com/rkilchmn/openrouter-free-scanner/internal/store/sqlite"
)

type HealthHandler struct {
	startTime time.Time
	tracker   *health.Tracker
	journal   *sqlite.Journal // optional
}

func NewHealthHandler(tracker *health.Tracker, journal *sqlite.Journal) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		tracker:   tracker,
		journal:   journal,
	}
}

// Health reports liveness plus a model-health summary. Pass ?detail=1 for
// per-model counters, and recent journaled failures when a journal is
// configured.
func (h *HealthHandler) Health(c *gin.Context) {
	summary := h.tracker.Snapshot()

	resp := gin.H{
		"status":          "ok",
		"uptime":          time.Since(h.startTime).String(),
		"time":            time.Now().UTC().Format(time.RFC3339),
		"models_tracked":  summary.Tracked,
		"models_disabled": summary.Disabled,
	}

	if c.Query("detail") != "" {
		resp["models"] = summary.Models
		if h.journal != nil {
			if failures, err := h.journal.RecentFailures(c.Request.Context(), time.Hour); err == nil {
				resp["recent_failures"] = failures
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
