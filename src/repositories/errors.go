package repositories

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail indicates the email is already used by another account
	ErrDuplicateEmail = errors.New("email already taken")

	// ErrAlreadyRegistered indicates the user already holds a registration for the event
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrEventFull indicates the event reached its capacity
	ErrEventFull = errors.New("event is full")
)
