package push

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studyx-backend/config"
	"studyx-backend/internal/model"
	"studyx-backend/internal/store"
	"studyx-backend/internal/vapid"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PushSubscription{}, &model.LatestNotification{}))
	return store.NewGormStore(db)
}

func newTestSigner(t *testing.T) (*vapid.Signer, *config.PushConfig) {
	t.Helper()
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	signer, err := vapid.NewSigner(publicKey, privateKey, "mailto:admin@studyx.app")
	require.NoError(t, err)

	cfg := &config.PushConfig{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		Subject:    "mailto:admin@studyx.app",
		TTL:        86400,
		Workers:    4,
		Timeout:    500 * time.Millisecond,
	}
	return signer, cfg
}

// spyStore counts subscription deletes so tests can assert cleanup happens
// exactly once.
type spyStore struct {
	store.Store
	mu      sync.Mutex
	deletes map[string]int
}

func newSpyStore(inner store.Store) *spyStore {
	return &spyStore{Store: inner, deletes: make(map[string]int)}
}

func (s *spyStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	s.mu.Lock()
	s.deletes[endpoint]++
	s.mu.Unlock()
	return s.Store.DeleteSubscription(ctx, endpoint)
}

func (s *spyStore) deleteCount(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes[endpoint]
}

func addSubscription(t *testing.T, s store.Store, endpoint string) {
	t.Helper()
	require.NoError(t, s.UpsertSubscription(context.Background(), &model.PushSubscription{
		Endpoint: endpoint,
		P256DH:   "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQtUbVlUls0VJXg7A8u-Ts1XbjhazAkj7I99e8QcYP7DkM",
		Auth:     "tBHItJI5svbpez7KI4CCXg",
	}))
}

func TestDispatchWakeupHeaders(t *testing.T) {
	st := newTestStore(t)
	signer, cfg := newTestSigner(t)

	var gotHeaders http.Header
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	addSubscription(t, st, server.URL+"/wpush/v2/abc")

	d := NewDispatcher(st, signer, cfg)
	result, err := d.Dispatch(context.Background(), model.NotificationContent{Title: "Hi"}, "")
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1, Failed: 0, Total: 1}, result)

	// A local test server is not an FCM host, so the generic dialect applies.
	auth := gotHeaders.Get("Authorization")
	assert.True(t, len(auth) > 8 && auth[:8] == "WebPush ", "Authorization = %q", auth)
	assert.Contains(t, gotHeaders.Get("Crypto-Key"), "p256ecdsa="+signer.PublicKey())
	assert.Equal(t, "86400", gotHeaders.Get("TTL"))
	assert.Equal(t, "high", gotHeaders.Get("Urgency"))
	assert.Empty(t, gotBody)
}

func TestDispatchPartialFailureIsolation(t *testing.T) {
	st := newSpyStore(newTestStore(t))
	signer, cfg := newTestSigner(t)

	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer okServer.Close()

	goneServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer goneServer.Close()

	slowServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * cfg.Timeout)
		w.WriteHeader(http.StatusCreated)
	}))
	defer slowServer.Close()

	addSubscription(t, st, okServer.URL+"/ok")
	addSubscription(t, st, goneServer.URL+"/gone")
	addSubscription(t, st, slowServer.URL+"/slow")

	d := NewDispatcher(st, signer, cfg)
	result, err := d.Dispatch(context.Background(), model.NotificationContent{Title: "Hi"}, "")
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1, Failed: 2, Total: 3}, result)

	// Only the gone subscription is cleaned up; the other two survive.
	subs, err := st.ListSubscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 2)
	endpoints := []string{subs[0].Endpoint, subs[1].Endpoint}
	assert.NotContains(t, endpoints, goneServer.URL+"/gone")
	assert.Equal(t, 1, st.deleteCount(goneServer.URL+"/gone"))
}

func TestDispatchGoneCleanupIsIdempotent(t *testing.T) {
	st := newSpyStore(newTestStore(t))
	signer, cfg := newTestSigner(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	endpoint := server.URL + "/gone"
	addSubscription(t, st, endpoint)

	d := NewDispatcher(st, signer, cfg)

	result, err := d.Dispatch(context.Background(), model.NotificationContent{}, endpoint)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 0, Failed: 1, Total: 1}, result)

	// Second dispatch finds nothing to target and nothing to delete.
	result, err = d.Dispatch(context.Background(), model.NotificationContent{}, endpoint)
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
	assert.Equal(t, 1, st.deleteCount(endpoint))
}

func TestDispatchSingleTargetMode(t *testing.T) {
	st := newTestStore(t)
	signer, cfg := newTestSigner(t)

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	target := server.URL + "/target"
	addSubscription(t, st, target)
	addSubscription(t, st, server.URL+"/other")

	d := NewDispatcher(st, signer, cfg)
	result, err := d.Dispatch(context.Background(), model.NotificationContent{Title: "Test"}, target)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1, Failed: 0, Total: 1}, result)
	assert.Equal(t, 1, hits)
}

func TestDispatchWithoutSigner(t *testing.T) {
	st := newTestStore(t)
	addSubscription(t, st, "https://push.example.com/abc")

	d := NewDispatcher(st, nil, &config.PushConfig{TTL: 86400, Workers: 1, Timeout: time.Second})
	_, err := d.Dispatch(context.Background(), model.NotificationContent{}, "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type stubEncryptedSender struct {
	sent [][]byte
	mu   sync.Mutex
}

func (s *stubEncryptedSender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	s.mu.Lock()
	s.sent = append(s.sent, payload)
	s.mu.Unlock()
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusCreated)
	return rec.Result(), nil
}

func TestDispatchEncryptedMode(t *testing.T) {
	st := newTestStore(t)
	signer, cfg := newTestSigner(t)
	cfg.EncryptPayload = true

	addSubscription(t, st, "https://push.example.com/enc")

	sender := &stubEncryptedSender{}
	d := NewDispatcher(st, signer, cfg)
	d.SetSender(sender)

	result, err := d.Dispatch(context.Background(), model.NotificationContent{Title: "Hi", Body: "Test"}, "")
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1, Failed: 0, Total: 1}, result)
	require.Len(t, sender.sent, 1)
	assert.JSONEq(t, `{"title":"Hi","body":"Test"}`, string(sender.sent[0]))
}
