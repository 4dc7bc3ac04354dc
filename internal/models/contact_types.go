package models

import "time"

// Contact message states
const (
	ContactPending  = "PENDING"
	ContactResolved = "RESOLVED"
)

// Contact is the model for the 'contacts' table (inbound customer messages)
type Contact struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Message   string    `json:"message" db:"message"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
