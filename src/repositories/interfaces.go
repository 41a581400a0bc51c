package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/khabaroff/eventdesk/src/models"
)

// UserRepository defines the interface for user account data access.
// Implementations enforce email uniqueness atomically and report collisions as ErrDuplicateEmail.
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	HasAdmins(ctx context.Context) (bool, error)

	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	MarkEmailVerified(ctx context.Context, id int64, at time.Time) error
}

// EventFilter narrows an event listing. Zero values disable a condition.
type EventFilter struct {
	StartsFrom   *time.Time // starts_at >= StartsFrom
	StartsBefore *time.Time // starts_at < StartsBefore
	Query        string     // case-insensitive match on title or description
	Location     string     // case-insensitive match on location
	Descending   bool
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	List(ctx context.Context, filter EventFilter) ([]models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int64) error
}

// RegistrationRepository defines the interface for event registrations.
// Register checks capacity and inserts in one transaction.
type RegistrationRepository interface {
	Register(ctx context.Context, eventID, userID int64) (*models.Registration, error)
	Unregister(ctx context.Context, eventID, userID int64) error
	ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error)
}

// TokenRepository defines the interface for issued API tokens
type TokenRepository interface {
	Create(ctx context.Context, token *models.APIToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.APIToken, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
