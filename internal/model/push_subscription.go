package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// The endpoint doubles as the primary key: re-subscribing the same browser
// upserts instead of creating a duplicate row.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
