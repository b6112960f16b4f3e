package mailer

import (
	"fmt"
	"html"
	"strings"

	"studyx-backend/internal/model"
)

type feedbackEmail struct {
	*model.Feedback
}

// StarRating renders a 1-5 rating as filled and hollow stars.
func StarRating(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

func (ef *feedbackEmail) Subject() string {
	return fmt.Sprintf("New Feedback from %s - %s", ef.Name, StarRating(ef.Rating))
}

func (ef *feedbackEmail) Body() string {
	email := ef.Email
	if email == "" {
		email = "Not provided"
	}
	return fmt.Sprintf(
		`
			<h3>New feedback received on StudyX</h3>
			<p style="font-size: 24px; letter-spacing: 4px;">%s</p>
			<p><b>From:</b> %s</p>
			<p><b>Email:</b> %s</p>
			<blockquote style="white-space: pre-wrap;">%s</blockquote>
		`,
		StarRating(ef.Rating),
		html.EscapeString(ef.Name),
		html.EscapeString(email),
		html.EscapeString(ef.Message),
	)
}
