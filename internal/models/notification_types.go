package models

import "time"

// Notification types for the admin bell
const (
	NotificationOrder   = "ORDER"
	NotificationContact = "CONTACT"
)

// Notification is a virtual record assembled from pending orders and
// contacts; it is never stored in its own table.
type Notification struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Time    time.Time      `json:"time"`
	IsRead  bool           `json:"isRead"`
	Details map[string]any `json:"details"`
}
