package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradeflowhq/tradeflow/internal/postgres"
)

// HealthHandler reports process liveness and database reachability.
type HealthHandler struct {
	db postgres.IClient
}

func NewHealthHandler(db postgres.IClient) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
