package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/repositories"
)

// UserRepository is an in-memory implementation of repositories.UserRepository.
// Stubs take precedence over the in-memory store when set.
type UserRepository struct {
	// Function stubs that can be overridden in tests
	ListFunc       func(ctx context.Context) ([]models.User, error)
	GetByIDFunc    func(ctx context.Context, id int64) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	CreateFunc     func(ctx context.Context, user *models.User) error
	UpdateFunc     func(ctx context.Context, user *models.User) error
	DeleteFunc     func(ctx context.Context, id int64) error

	// Call tracking
	Calls map[string][]interface{}

	mu     sync.Mutex
	users  map[int64]models.User
	nextID int64
}

// NewUserRepository creates a new mock user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		Calls: make(map[string][]interface{}),
		users: make(map[int64]models.User),
	}
}

// Seed stores users directly, assigning ids where missing, and returns the stored copies
func (m *UserRepository) Seed(users ...models.User) []models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	seeded := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID == 0 {
			m.nextID++
			u.ID = m.nextID
		} else if u.ID > m.nextID {
			m.nextID = u.ID
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now()
			u.UpdatedAt = u.CreatedAt
		}
		m.users[u.ID] = u
		seeded = append(seeded, u)
	}
	return seeded
}

// Count returns the number of stored users
func (m *UserRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *UserRepository) record(name string, arg interface{}) {
	m.mu.Lock()
	m.Calls[name] = append(m.Calls[name], arg)
	m.mu.Unlock()
}

// CallCount returns how many times the named method was called
func (m *UserRepository) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls[name])
}

func (m *UserRepository) List(ctx context.Context) ([]models.User, error) {
	m.record("List", nil)
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]models.User, 0, len(m.users))
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (m *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.record("GetByID", id)
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.record("GetByEmail", email)
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	m.record("EmailTaken", email)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emailTakenLocked(email, exceptID), nil
}

func (m *UserRepository) emailTakenLocked(email string, exceptID int64) bool {
	for id, u := range m.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *UserRepository) HasAdmins(ctx context.Context) (bool, error) {
	m.record("HasAdmins", nil)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	m.record("Create", user)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTakenLocked(user.Email, 0) {
		return repositories.ErrDuplicateEmail
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = *user
	return nil
}

func (m *UserRepository) Update(ctx context.Context, user *models.User) error {
	m.record("Update", user)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if m.emailTakenLocked(user.Email, user.ID) {
		return repositories.ErrDuplicateEmail
	}
	user.CreatedAt = existing.CreatedAt
	user.EmailVerifiedAt = existing.EmailVerifiedAt
	user.UpdatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *UserRepository) Delete(ctx context.Context, id int64) error {
	m.record("Delete", id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *UserRepository) MarkEmailVerified(ctx context.Context, id int64, at time.Time) error {
	m.record("MarkEmailVerified", id)

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.EmailVerifiedAt = &at
	m.users[id] = u
	return nil
}

// Ensure UserRepository implements the interface
var _ repositories.UserRepository = (*UserRepository)(nil)
