package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"studyx-backend/internal/stats"
)

// GetSubscriptionStats aggregates the subscription base into dashboard
// counters.
func (h *Handler) GetSubscriptionStats(c *gin.Context) {
	subs, err := h.store.ListSubscriptions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats.Compute(subs, time.Now()))
}
