package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyx-backend/internal/model"
)

type sendFeedbackRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Message string `json:"message" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
}

// SendFeedback stores a feedback entry and emails it to the admin inbox.
// Mail delivery failing does not fail the request; the entry is already
// persisted.
func (h *Handler) SendFeedback(c *gin.Context) {
	var req sendFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fb := &model.Feedback{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
		Rating:  req.Rating,
	}
	if err := h.store.CreateFeedback(c.Request.Context(), fb); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	mailed := false
	if h.mailer != nil {
		if err := h.mailer.SendFeedback(c.Request.Context(), fb); err != nil {
			log.Printf("Error sending feedback email: %v", err)
		} else {
			mailed = true
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": fb.ID, "mailed": mailed})
}
