package models

import "time"

// Notification is the model for the 'notifications' table.
// Link is an in-app route, e.g. "/coaching".
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Link      *string   `json:"link,omitempty" db:"link"`
	IsRead    bool      `json:"isRead" db:"is_read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
