package model

import "time"

// LatestNotificationID is the fixed key of the singleton relay row.
const LatestNotificationID int64 = 1

// LatestNotification is the single-row relay record that service workers
// fetch after receiving a content-less push.
type LatestNotification struct {
	ID        int64     `gorm:"primaryKey"`
	Title     string    `gorm:"not null"`
	Body      string    `gorm:"not null"`
	Icon      string
	Image     string
	URL       string
	UpdatedAt time.Time `gorm:"not null"`
}

// NotificationContent is the message carried by a push notification.
type NotificationContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	Image string `json:"image,omitempty"`
	URL   string `json:"url,omitempty"`
}
