package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rkilchmn/openrouter-free-scanner/internal/proxy"
	"github.com/rkilchmn/openrouter-free-scanner/pkg/api"
)

type ModelHandler struct {
	candidates proxy.CandidateSource
}

func NewModelHandler(candidates proxy.CandidateSource) *ModelHandler {
	return &ModelHandler{candidates: candidates}
}

// ListModels returns the current candidate list in the OpenAI list shape.
func (h *ModelHandler) ListModels(c *gin.Context) {
	models := h.candidates.Current()

	list := api.ModelList{
		Object: "list",
		Data:   make([]api.ModelListItem, 0, len(models)),
	}
	for _, m := range models {
		created := m.Created
		if created == 0 {
			created = time.Now().Unix()
		}
		list.Data = append(list.Data, api.ModelListItem{
			ID:      m.ID,
			Object:  "model",
			Created: created,
			OwnedBy: "openrouter",
			Root:    m.ID,
		})
	}

	c.JSON(http.StatusOK, list)
}
