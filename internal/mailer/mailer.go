// Package mailer delivers feedback notification emails to the admin inbox.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"studyx-backend/config"
	"studyx-backend/internal/model"
)

// Mailer sends operational emails.
type Mailer interface {
	SendFeedback(ctx context.Context, fb *model.Feedback) error
}

// New creates a Mailgun-backed mailer. Returns nil when no API key is
// configured; callers treat a nil mailer as "email disabled".
func New(cfg *config.MailConfig) Mailer {
	if cfg.APIKey == "" || cfg.Domain == "" || cfg.AdminEmail == "" {
		return nil
	}
	return &mailgunMailer{cfg: cfg}
}

type mailgunMailer struct {
	cfg *config.MailConfig
}

// SendFeedback emails the feedback entry to the configured admin address.
func (m *mailgunMailer) SendFeedback(ctx context.Context, fb *model.Feedback) error {
	mg := mailgun.NewMailgun(m.cfg.Domain, m.cfg.APIKey)

	email := feedbackEmail{fb}
	// Create message with empty body first; SetHtml assigns the MIME type.
	message := mg.NewMessage(m.cfg.From, email.Subject(), "", m.cfg.AdminEmail)
	message.SetHtml(email.Body())

	timeout := time.Duration(m.cfg.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, _, err := mg.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send feedback email: %w", err)
	}
	return nil
}
