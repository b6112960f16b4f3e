package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/SherClockHolmes/webpush-go"

	"studyx-backend/config"
	"studyx-backend/internal/model"
	"studyx-backend/internal/store"
	"studyx-backend/internal/vapid"
)

// ErrNotConfigured is returned when dispatch is attempted without VAPID keys.
var ErrNotConfigured = errors.New("push: vapid keys not configured")

// EncryptedSender sends an RFC 8291 encrypted push. Mirrors the webpush
// library signature so tests can substitute their own.
type EncryptedSender interface {
	Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

type webPushSender struct{}

func (webPushSender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotificationWithContext(ctx, payload, sub, options)
}

// Result summarizes a dispatch batch. Individual failures never abort the
// batch, so callers always get counts rather than an error.
type Result struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Dispatcher delivers push notifications to stored subscriptions.
//
// The default mode sends a content-less wake-up push with hand-built VAPID
// headers; the receiving service worker fetches the actual message from the
// content relay. With EncryptPayload set the full JSON payload is encrypted
// into the push body instead, via the webpush library.
type Dispatcher struct {
	store   store.Store
	signer  *vapid.Signer
	client  *http.Client
	ttl     int
	workers int

	encrypt bool
	sender  EncryptedSender
	wpOpts  *webpush.Options
}

// NewDispatcher creates a dispatcher. signer may be nil when VAPID keys are
// not configured; Dispatch then fails fast before touching the network.
func NewDispatcher(s store.Store, signer *vapid.Signer, cfg *config.PushConfig) *Dispatcher {
	d := &Dispatcher{
		store:   s,
		signer:  signer,
		client:  &http.Client{Timeout: cfg.Timeout},
		ttl:     cfg.TTL,
		workers: cfg.Workers,
		encrypt: cfg.EncryptPayload,
		sender:  webPushSender{},
	}
	if cfg.EncryptPayload {
		d.wpOpts = &webpush.Options{
			VAPIDPublicKey:  cfg.PublicKey,
			VAPIDPrivateKey: cfg.PrivateKey,
			Subscriber:      cfg.Subject,
			TTL:             cfg.TTL,
			Urgency:         webpush.UrgencyHigh,
		}
	}
	return d
}

// SetSender replaces the encrypted-payload sender. Intended for tests.
func (d *Dispatcher) SetSender(sender EncryptedSender) {
	d.sender = sender
}

// Dispatch sends the notification to all stored subscriptions, or to the
// single subscription matching endpoint when it is non-empty.
//
// Per-subscription outcomes are aggregated: 2xx counts as sent, anything
// else as failed. Subscriptions the provider reports gone (404/410) are
// deleted from the store as a side effect; transient failures leave the
// subscription in place.
func (d *Dispatcher) Dispatch(ctx context.Context, content model.NotificationContent, endpoint string) (Result, error) {
	if d.signer == nil {
		return Result{}, ErrNotConfigured
	}

	subs, err := d.targets(ctx, endpoint)
	if err != nil {
		return Result{}, err
	}
	if len(subs) == 0 {
		return Result{}, nil
	}

	var sent, failed atomic.Int64

	workers := d.workers
	if workers > len(subs) {
		workers = len(subs)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan model.PushSubscription)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range jobs {
				if d.deliver(ctx, sub, content) {
					sent.Add(1)
				} else {
					failed.Add(1)
				}
			}
		}()
	}

feed:
	for _, sub := range subs {
		select {
		case jobs <- sub:
		case <-ctx.Done():
			failed.Add(1)
			continue feed
		}
	}
	close(jobs)
	wg.Wait()

	return Result{
		Sent:   int(sent.Load()),
		Failed: int(failed.Load()),
		Total:  len(subs),
	}, nil
}

// targets resolves the subscription set for a dispatch: everything, or the
// one matching endpoint in single-target mode.
func (d *Dispatcher) targets(ctx context.Context, endpoint string) ([]model.PushSubscription, error) {
	if endpoint == "" {
		subs, err := d.store.ListSubscriptions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load subscriptions: %w", err)
		}
		return subs, nil
	}

	sub, err := d.store.GetSubscription(ctx, endpoint)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return []model.PushSubscription{*sub}, nil
}

// deliver attempts a single push and reports whether the provider accepted
// it. Gone subscriptions are removed from the store here; this is the only
// cleanup mechanism, there is no separate sweep.
func (d *Dispatcher) deliver(ctx context.Context, sub model.PushSubscription, content model.NotificationContent) bool {
	var status int
	var err error
	if d.encrypt {
		status, err = d.sendEncrypted(ctx, sub, content)
	} else {
		status, err = d.sendWakeup(ctx, sub)
	}
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return false
	}

	switch {
	case status >= 200 && status < 300:
		return true
	case status == http.StatusNotFound || status == http.StatusGone:
		log.Printf("Subscription for endpoint %s is gone (status %d). Deleting.", sub.Endpoint, status)
		if err := d.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete gone subscription %s: %v", sub.Endpoint, err)
		}
		return false
	default:
		log.Printf("Push service rejected notification for %s: status %d", sub.Endpoint, status)
		return false
	}
}

// sendWakeup POSTs an empty-body push with hand-built VAPID headers. The
// body carries no payload; the service worker fetches the message from the
// content relay instead.
func (d *Dispatcher) sendWakeup(ctx context.Context, sub model.PushSubscription) (int, error) {
	assertion, err := d.signer.Assertion(sub.Endpoint)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("TTL", strconv.Itoa(d.ttl))
	req.Header.Set("Urgency", "high")
	for k, v := range ClassifyEndpoint(sub.Endpoint).AuthHeaders(assertion, d.signer.PublicKey()) {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// sendEncrypted delivers the full payload through the webpush library.
func (d *Dispatcher) sendEncrypted(ctx context.Context, sub model.PushSubscription, content model.NotificationContent) (int, error) {
	payload, err := json.Marshal(content)
	if err != nil {
		return 0, err
	}

	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}
	resp, err := d.sender.Send(ctx, payload, wpSub, d.wpOpts)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
