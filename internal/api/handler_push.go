package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyx-backend/internal/model"
)

type pushSubscribeRequest struct {
	Subscription struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256DH string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	} `json:"subscription" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// PushSubscribe stores or removes a browser push subscription, depending on
// the requested action.
func (h *Handler) PushSubscribe(c *gin.Context) {
	var req pushSubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Action {
	case "subscribe":
		if req.Subscription.Keys.P256DH == "" || req.Subscription.Keys.Auth == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "subscription keys are required"})
			return
		}
		sub := &model.PushSubscription{
			Endpoint:  req.Subscription.Endpoint,
			P256DH:    req.Subscription.Keys.P256DH,
			Auth:      req.Subscription.Keys.Auth,
			UserAgent: c.Request.UserAgent(),
		}
		if err := h.store.UpsertSubscription(c.Request.Context(), sub); err != nil {
			log.Printf("Error storing subscription: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Subscribed to push notifications"})

	case "unsubscribe":
		if err := h.store.DeleteSubscription(c.Request.Context(), req.Subscription.Endpoint); err != nil {
			log.Printf("Error removing subscription: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Unsubscribed from push notifications"})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
	}
}

type sendPushRequest struct {
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body" binding:"required"`
	Icon     string `json:"icon"`
	Image    string `json:"image"`
	URL      string `json:"url"`
	Endpoint string `json:"endpoint"`
}

// SendPushNotification publishes the content to the relay and dispatches a
// push to every subscription, or to a single endpoint for test sends.
func (h *Handler) SendPushNotification(c *gin.Context) {
	var req sendPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content := model.NotificationContent{
		Title: req.Title,
		Body:  req.Body,
		Icon:  req.Icon,
		Image: req.Image,
		URL:   req.URL,
	}
	if content.Icon == "" {
		content.Icon = "/notification-icon.png"
	}
	if content.URL == "" {
		content.URL = "/"
	}

	// Publish before dispatching so the content is in place by the time a
	// push wakes any service worker. A failed publish is soft: clients fall
	// back to the default message.
	if err := h.relay.Publish(c.Request.Context(), content); err != nil {
		log.Printf("Error publishing notification content: %v", err)
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), content, req.Endpoint)
	if err != nil {
		log.Printf("Dispatch failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	debug := fmt.Sprintf("dispatched to %d subscription(s)", result.Total)
	if result.Total == 0 {
		debug = "no matching subscriptions"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"sent":          result.Sent,
		"failed":        result.Failed,
		"total":         result.Total,
		"debug_message": debug,
	})
}

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.publicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vapid keys are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": h.publicKey})
}
