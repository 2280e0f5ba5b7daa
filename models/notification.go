package models

import "time"

// NotificationRecord is a durable copy of a transfer outcome
// notification. The frontend marks records read as the user sees
// them.
type NotificationRecord struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Read         bool      `json:"read"`
	Notification []byte    `json:"notification"`
}
