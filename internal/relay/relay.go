// Package relay persists the latest notification content to a fixed row so
// that service workers can fetch the full message after a content-less push.
//
// This indirection exists because the original deployment could not encrypt
// push payloads; with encrypted payloads enabled the relay is redundant but
// harmless, so it is always written.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log"

	"studyx-backend/internal/model"
	"studyx-backend/internal/store"
)

// DefaultContent is what clients fall back to when the relay row cannot be
// read. The service worker ships the same hard-coded values.
func DefaultContent() model.NotificationContent {
	return model.NotificationContent{
		Title: "StudyX",
		Body:  "New content available",
		Icon:  "/notification-icon.png",
		URL:   "/",
	}
}

// Relay reads and writes the singleton notification row.
type Relay struct {
	store store.Store
}

// New creates a relay backed by the given store.
func New(s store.Store) *Relay {
	return &Relay{store: s}
}

// Publish overwrites the relay row. Callers publish before dispatching so
// the content is in place by the time any push arrives client-side.
func (r *Relay) Publish(ctx context.Context, content model.NotificationContent) error {
	if err := r.store.UpsertLatestNotification(ctx, content); err != nil {
		return fmt.Errorf("relay publish: %w", err)
	}
	return nil
}

// Latest returns the current relay content. The second return value reports
// whether the default was substituted because the row was absent or the
// store unreachable; degraded reads are soft failures by design, the user
// still sees a notification.
func (r *Relay) Latest(ctx context.Context) (model.NotificationContent, bool) {
	row, err := r.store.GetLatestNotification(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Error reading latest notification, serving default: %v", err)
		}
		return DefaultContent(), true
	}
	return model.NotificationContent{
		Title: row.Title,
		Body:  row.Body,
		Icon:  row.Icon,
		Image: row.Image,
		URL:   row.URL,
	}, false
}
