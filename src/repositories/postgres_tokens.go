package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/khabaroff/eventdesk/src/models"
)

// PostgresTokenRepository stores API token records in PostgreSQL
type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new PostgreSQL token repository
func NewTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

// Create stores a newly issued token
func (r *PostgresTokenRepository) Create(ctx context.Context, token *models.APIToken) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO api_tokens (id, user_id, expires_at) VALUES ($1, $2, $3) RETURNING created_at`,
		token.ID, token.UserID, token.ExpiresAt,
	).Scan(&token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create api token: %w", err)
	}
	return nil
}

// GetByID retrieves a token record by its jti
func (r *PostgresTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.APIToken, error) {
	token := &models.APIToken{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at, expires_at, last_used_at FROM api_tokens WHERE id = $1`,
		id,
	).Scan(&token.ID, &token.UserID, &token.CreatedAt, &token.ExpiresAt, &token.LastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get api token: %w", err)
	}
	return token, nil
}

// Touch records the last time the token authenticated a request
func (r *PostgresTokenRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_tokens SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch api token: %w", err)
	}
	return nil
}

// Delete revokes a token
func (r *PostgresTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM api_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete api token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes tokens whose expiry has passed
func (r *PostgresTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM api_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired api tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
