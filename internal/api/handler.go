package api

import (
	"context"

	"studyx-backend/internal/mailer"
	"studyx-backend/internal/model"
	"studyx-backend/internal/push"
	"studyx-backend/internal/relay"
	"studyx-backend/internal/store"
)

// Dispatcher is the slice of push.Dispatcher the handlers need; tests
// substitute their own.
type Dispatcher interface {
	Dispatch(ctx context.Context, content model.NotificationContent, endpoint string) (push.Result, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	relay      *relay.Relay
	dispatcher Dispatcher
	mailer     mailer.Mailer
	publicKey  string
}

// NewHandler creates a new API handler. mail may be nil when feedback email
// is disabled.
func NewHandler(s store.Store, r *relay.Relay, d Dispatcher, mail mailer.Mailer, vapidPublicKey string) *Handler {
	return &Handler{
		store:      s,
		relay:      r,
		dispatcher: d,
		mailer:     mail,
		publicKey:  vapidPublicKey,
	}
}
