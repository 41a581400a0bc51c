package models

import "time"

// Event represents a scheduled event users can register for
type Event struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity"` // nil means unlimited
	CreatedBy   *int64     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// RegisteredCount is computed on read
	RegisteredCount int `json:"registered_count"`
}

// HasStarted returns true if the event start time is not after now
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartsAt.After(now)
}

// IsFull returns true if a capacity is set and reached
func (e *Event) IsFull() bool {
	return e.Capacity != nil && e.RegisteredCount >= *e.Capacity
}
