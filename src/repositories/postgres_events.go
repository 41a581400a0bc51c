package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/khabaroff/eventdesk/src/models"
)

const eventSelect = `
	SELECT e.id, e.title, e.description, e.location, e.starts_at, e.ends_at, e.capacity,
	       e.created_by, e.created_at, e.updated_at,
	       (SELECT COUNT(*) FROM event_registrations r WHERE r.event_id = e.id) AS registered_count
	FROM events e
`

// PostgresEventRepository stores events in PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new PostgreSQL event repository
func NewEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(
		&event.ID, &event.Title, &event.Description, &event.Location, &event.StartsAt, &event.EndsAt,
		&event.Capacity, &event.CreatedBy, &event.CreatedAt, &event.UpdatedAt, &event.RegisteredCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

// List returns events matching the filter ordered by start time
func (r *PostgresEventRepository) List(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	var (
		conditions []string
		args       []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.StartsFrom != nil {
		conditions = append(conditions, "e.starts_at >= "+arg(*filter.StartsFrom))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "e.starts_at < "+arg(*filter.StartsBefore))
	}
	if filter.Query != "" {
		p := arg("%" + filter.Query + "%")
		conditions = append(conditions, "(e.title ILIKE "+p+" OR e.description ILIKE "+p+")")
	}
	if filter.Location != "" {
		conditions = append(conditions, "e.location ILIKE "+arg("%"+filter.Location+"%"))
	}

	query := eventSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if filter.Descending {
		query += " ORDER BY e.starts_at DESC, e.id DESC"
	} else {
		query += " ORDER BY e.starts_at ASC, e.id ASC"
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// GetByID retrieves an event by id
func (r *PostgresEventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event, err := scanEvent(r.pool.QueryRow(ctx, eventSelect+" WHERE e.id = $1", id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// Create inserts the event and fills in the generated columns
func (r *PostgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, location, starts_at, ends_at, capacity, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		event.Title, event.Description, event.Location, event.StartsAt, event.EndsAt, event.Capacity, event.CreatedBy,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// Update rewrites the editable event columns
func (r *PostgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET title = $2, description = $3, location = $4, starts_at = $5, ends_at = $6, capacity = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		event.ID, event.Title, event.Description, event.Location, event.StartsAt, event.EndsAt, event.Capacity,
	).Scan(&event.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// Delete removes an event together with its registrations
func (r *PostgresEventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
