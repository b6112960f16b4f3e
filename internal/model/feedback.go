package model

import "time"

// Feedback is a user-submitted feedback entry with a 1-5 star rating.
type Feedback struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `json:"email,omitempty"`
	Message   string    `gorm:"not null" json:"message"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
