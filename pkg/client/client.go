// Package client is a Go client for the StudyX push backend. It covers the
// backend half of the browser subscription flow: the permission prompt and
// pushManager.subscribe stay in the browser, everything after that can go
// through here.
package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carlmjohnson/requests"

	"studyx-backend/internal/model"
	"studyx-backend/internal/stats"
	"studyx-backend/internal/vapid"
)

// Subscription mirrors the JSON a browser PushSubscription serializes to.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

// Keys are the per-subscription encryption keys.
type Keys struct {
	P256DH string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// SendRequest is the admin send operation.
type SendRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Icon     string `json:"icon,omitempty"`
	Image    string `json:"image,omitempty"`
	URL      string `json:"url,omitempty"`
	Endpoint string `json:"endpoint,omitempty"` // non-empty narrows to one target
}

// SendResult is the per-batch summary returned by the backend.
type SendResult struct {
	Success      bool   `json:"success"`
	Sent         int    `json:"sent"`
	Failed       int    `json:"failed"`
	Total        int    `json:"total"`
	DebugMessage string `json:"debug_message"`
}

// Client talks to the StudyX backend API.
type Client struct {
	baseURL   string
	transport http.RoundTripper
}

// Option configures a Client.
type Option func(*Client)

// WithTransport overrides the HTTP transport, mainly for tests.
func WithTransport(t http.RoundTripper) Option {
	return func(c *Client) { c.transport = t }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: baseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) req(path string) *requests.Builder {
	b := requests.URL(c.baseURL).Path(path)
	if c.transport != nil {
		b = b.Transport(c.transport)
	}
	return b
}

type subscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Subscribe reports a completed browser subscription to the backend.
func (c *Client) Subscribe(ctx context.Context, sub Subscription) error {
	return c.subscribeAction(ctx, sub, "subscribe")
}

// Unsubscribe asks the backend to delete the subscription by endpoint.
func (c *Client) Unsubscribe(ctx context.Context, endpoint string) error {
	return c.subscribeAction(ctx, Subscription{Endpoint: endpoint}, "unsubscribe")
}

func (c *Client) subscribeAction(ctx context.Context, sub Subscription, action string) error {
	payload := map[string]any{"subscription": sub, "action": action}
	var resp subscribeResponse
	err := c.req("/push-subscribe").
		BodyJSON(&payload).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return fmt.Errorf("%s failed: %w", action, err)
	}
	if !resp.Success {
		return fmt.Errorf("%s rejected: %s", action, resp.Message)
	}
	return nil
}

// VAPIDPublicKey fetches the server's base64url-encoded public key.
func (c *Client) VAPIDPublicKey(ctx context.Context) (string, error) {
	var resp struct {
		PublicKey string `json:"public_key"`
	}
	err := c.req("/vapid-public-key").
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch vapid public key: %w", err)
	}
	return resp.PublicKey, nil
}

// ApplicationServerKey fetches the public key and decodes it to the raw
// bytes pushManager.subscribe expects.
func (c *Client) ApplicationServerKey(ctx context.Context) ([]byte, error) {
	key, err := c.VAPIDPublicKey(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := vapid.DecodeKey(key)
	if err != nil {
		return nil, fmt.Errorf("server returned malformed public key: %w", err)
	}
	return raw, nil
}

// LatestNotification fetches the current relay content.
func (c *Client) LatestNotification(ctx context.Context) (model.NotificationContent, error) {
	var content model.NotificationContent
	err := c.req("/latest-notification").
		ToJSON(&content).
		Fetch(ctx)
	if err != nil {
		return model.NotificationContent{}, fmt.Errorf("failed to fetch latest notification: %w", err)
	}
	return content, nil
}

// Send triggers a push dispatch.
func (c *Client) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	var result SendResult
	err := c.req("/send-push-notification").
		BodyJSON(&req).
		ToJSON(&result).
		Fetch(ctx)
	if err != nil {
		return SendResult{}, fmt.Errorf("send failed: %w", err)
	}
	return result, nil
}

// Stats fetches the subscription statistics.
func (c *Client) Stats(ctx context.Context) (stats.Stats, error) {
	var s stats.Stats
	err := c.req("/get-subscription-stats").
		ToJSON(&s).
		Fetch(ctx)
	if err != nil {
		return stats.Stats{}, fmt.Errorf("failed to fetch stats: %w", err)
	}
	return s, nil
}
