package models

import "time"

// Review is the model for the 'reviews' table
type Review struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"productId" db:"product_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Reviewer display name, joined from 'users'
	UserName string `json:"userName" db:"-"`
}
