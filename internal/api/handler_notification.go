package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LatestNotification returns the current relay content. Reads never fail
// hard: an unreachable store degrades to the default message so the service
// worker always has something to render.
func (h *Handler) LatestNotification(c *gin.Context) {
	content, _ := h.relay.Latest(c.Request.Context())
	c.JSON(http.StatusOK, content)
}
