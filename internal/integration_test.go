package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studyx-backend/config"
	"studyx-backend/internal/api"
	"studyx-backend/internal/model"
	"studyx-backend/internal/push"
	"studyx-backend/internal/relay"
	"studyx-backend/internal/store"
	"studyx-backend/internal/vapid"
)

// TestSubscribeAndBroadcast walks the full pipeline: a browser reports its
// subscription, an admin sends a notification, the push service receives a
// signed wake-up push, and the relay row holds the content the service
// worker will fetch.
func TestSubscribeAndBroadcast(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 1. In-memory database.
	testDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(
		&model.PushSubscription{},
		&model.LatestNotification{},
		&model.Feedback{},
	))
	appStore := store.NewGormStore(testDB)

	// 2. A stand-in push service that records what it receives.
	var mu sync.Mutex
	var pushes []http.Header
	pushService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		pushes = append(pushes, r.Header.Clone())
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer pushService.Close()

	// 3. Real signer and dispatcher.
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	signer, err := vapid.NewSigner(publicKey, privateKey, "mailto:admin@studyx.app")
	require.NoError(t, err)

	pushCfg := config.PushConfig{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		Subject:    "mailto:admin@studyx.app",
		TTL:        86400,
		Workers:    4,
		Timeout:    2 * time.Second,
	}
	dispatcher := push.NewDispatcher(appStore, signer, &pushCfg)

	handler := api.NewHandler(appStore, relay.New(appStore), dispatcher, nil, publicKey)
	router := api.NewRouter(handler, &config.ServerConfig{RateLimitPerSec: 1000, StatsCacheTTL: 1})

	// 4. Browser reports its subscription.
	endpoint := pushService.URL + "/wpush/v2/device1"
	subscribeBody, _ := json.Marshal(map[string]any{
		"subscription": map[string]any{
			"endpoint": endpoint,
			"keys":     map[string]string{"p256dh": "pkey", "auth": "akey"},
		},
		"action": "subscribe",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/push-subscribe", bytes.NewReader(subscribeBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 Chrome/120.0 Safari/537.36")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := appStore.GetSubscription(context.Background(), endpoint)
	require.NoError(t, err)
	assert.Equal(t, "pkey", stored.P256DH)
	assert.Equal(t, "akey", stored.Auth)

	// 5. Admin broadcasts a notification.
	sendBody, _ := json.Marshal(map[string]string{"title": "Hi", "body": "Test"})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/send-push-notification", bytes.NewReader(sendBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Success bool `json:"success"`
		Sent    int  `json:"sent"`
		Failed  int  `json:"failed"`
		Total   int  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.Total)

	// 6. The push service saw exactly one signed, content-less push.
	mu.Lock()
	require.Len(t, pushes, 1)
	headers := pushes[0]
	mu.Unlock()
	assert.Contains(t, headers.Get("Authorization"), "WebPush ")
	assert.Contains(t, headers.Get("Crypto-Key"), "p256ecdsa=")
	assert.Equal(t, "86400", headers.Get("TTL"))
	assert.Equal(t, "high", headers.Get("Urgency"))

	// 7. The relay row now carries the content for the service worker.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/latest-notification", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var content model.NotificationContent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &content))
	assert.Equal(t, "Hi", content.Title)
	assert.Equal(t, "Test", content.Body)
}
