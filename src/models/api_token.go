package models

import (
	"time"

	"github.com/google/uuid"
)

// APIToken is the stored half of a bearer token; the JWT carries its ID as jti
type APIToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     int64      `json:"user_id"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// IsExpired returns true if the token expiry has passed
func (t *APIToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
