package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"studyx-backend/config"
	"studyx-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(handler *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	r.Use(mw.CORS())
	r.Use(mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), 5))

	statsTTL := time.Duration(cfg.StatsCacheTTL) * time.Second
	cacheStore := cache.New(statsTTL, 2*statsTTL)
	caching := mw.Cache(cacheStore, statsTTL)

	r.POST("/push-subscribe", handler.PushSubscribe)
	r.GET("/latest-notification", handler.LatestNotification)
	r.POST("/send-push-notification", handler.SendPushNotification)
	r.GET("/get-subscription-stats", caching, handler.GetSubscriptionStats)
	r.GET("/vapid-public-key", handler.GetVAPIDPublicKey)
	r.POST("/send-feedback", handler.SendFeedback)

	return r
}
