package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsJSON returns a summary of the Prometheus counters
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
