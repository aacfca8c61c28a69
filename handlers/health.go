package handlers

import (
	"net/http"

	"github.com/block-integration-api/tutorial-webchat/services/notifier"
	"github.com/block-integration-api/tutorial-webchat/utils"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	Stats func() notifier.Stats
}

func NewHealthHandler(stats func() notifier.Stats) *HealthHandler {
	return &HealthHandler{Stats: stats}
}

// HealthCheckHandler reports liveness, notifier channel counts and the last
// dependency health snapshot.
func (h *HealthHandler) HealthCheckHandler(c *gin.Context) {
	body := gin.H{"status": "ok", "dependencies": utils.GetHealthStatus()}
	if h.Stats != nil {
		body["notifier"] = h.Stats()
	}
	c.JSON(http.StatusOK, body)
}
