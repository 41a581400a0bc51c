package models

import "time"

// User represents a user account
type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"` // never expose
	IsAdmin         bool       `json:"is_admin"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasVerifiedEmail reports whether the email verification link was followed
func (u *User) HasVerifiedEmail() bool {
	return u.EmailVerifiedAt != nil
}
