package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/repositories"
)

// TokenRepository is an in-memory implementation of repositories.TokenRepository
type TokenRepository struct {
	// Function stubs that can be overridden in tests
	CreateFunc func(ctx context.Context, token *models.APIToken) error

	mu     sync.Mutex
	tokens map[uuid.UUID]models.APIToken
}

// NewTokenRepository creates a new mock token repository
func NewTokenRepository() *TokenRepository {
	return &TokenRepository{tokens: make(map[uuid.UUID]models.APIToken)}
}

// Len returns the number of stored tokens
func (m *TokenRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func (m *TokenRepository) Create(ctx context.Context, token *models.APIToken) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	token.CreatedAt = time.Now()
	m.tokens[token.ID] = *token
	return nil
}

func (m *TokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.APIToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (m *TokenRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tokens[id]; ok {
		t.LastUsedAt = &at
		m.tokens[id] = t
	}
	return nil
}

func (m *TokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.tokens, id)
	return nil
}

func (m *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, t := range m.tokens {
		if t.IsExpired(now) {
			delete(m.tokens, id)
			n++
		}
	}
	return n, nil
}

// Ensure TokenRepository implements the interface
var _ repositories.TokenRepository = (*TokenRepository)(nil)
