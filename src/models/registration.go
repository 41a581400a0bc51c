package models

import "time"

// Registration links a user to an event
type Registration struct {
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
