package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/khabaroff/eventdesk/src/models"
)

// PostgresRegistrationRepository stores event registrations in PostgreSQL
type PostgresRegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository creates a new PostgreSQL registration repository
func NewRegistrationRepository(pool *pgxpool.Pool) *PostgresRegistrationRepository {
	return &PostgresRegistrationRepository{pool: pool}
}

// Register adds the user to the event. The event row is locked so concurrent
// registrations cannot exceed its capacity.
func (r *PostgresRegistrationRepository) Register(ctx context.Context, eventID, userID int64) (*models.Registration, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var capacity *int
	err = tx.QueryRow(ctx, `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check registration: %w", err)
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	if capacity != nil {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`, eventID).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count registrations: %w", err)
		}
		if count >= *capacity {
			return nil, ErrEventFull
		}
	}

	registration := &models.Registration{EventID: eventID, UserID: userID}
	err = tx.QueryRow(ctx,
		`INSERT INTO event_registrations (event_id, user_id) VALUES ($1, $2) RETURNING created_at`,
		eventID, userID,
	).Scan(&registration.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to insert registration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return registration, nil
}

// Unregister removes the registration
func (r *PostgresRegistrationRepository) Unregister(ctx context.Context, eventID, userID int64) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM event_registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByEvent returns the registrations of an event in sign-up order
func (r *PostgresRegistrationRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT event_id, user_id, created_at FROM event_registrations WHERE event_id = $1 ORDER BY created_at, user_id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	registrations := []models.Registration{}
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.EventID, &reg.UserID, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		registrations = append(registrations, reg)
	}
	return registrations, rows.Err()
}
