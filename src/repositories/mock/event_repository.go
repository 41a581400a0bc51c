package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/repositories"
)

// EventRepository is an in-memory implementation of repositories.EventRepository.
// It also holds the registrations so listings can report registered counts.
type EventRepository struct {
	// Function stubs that can be overridden in tests
	ListFunc    func(ctx context.Context, filter repositories.EventFilter) ([]models.Event, error)
	GetByIDFunc func(ctx context.Context, id int64) (*models.Event, error)

	// Call tracking
	Calls map[string][]interface{}

	mu            sync.Mutex
	events        map[int64]models.Event
	registrations map[int64][]models.Registration
	nextID        int64
}

// NewEventRepository creates a new mock event repository
func NewEventRepository() *EventRepository {
	return &EventRepository{
		Calls:         make(map[string][]interface{}),
		events:        make(map[int64]models.Event),
		registrations: make(map[int64][]models.Registration),
	}
}

// Seed stores an event directly and returns the stored copy
func (m *EventRepository) Seed(event models.Event) models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.ID == 0 {
		m.nextID++
		event.ID = m.nextID
	} else if event.ID > m.nextID {
		m.nextID = event.ID
	}
	m.events[event.ID] = event
	return event
}

func (m *EventRepository) record(name string, arg interface{}) {
	m.mu.Lock()
	m.Calls[name] = append(m.Calls[name], arg)
	m.mu.Unlock()
}

func (m *EventRepository) withCount(e models.Event) models.Event {
	e.RegisteredCount = len(m.registrations[e.ID])
	return e
}

func matches(e models.Event, filter repositories.EventFilter) bool {
	if filter.StartsFrom != nil && e.StartsAt.Before(*filter.StartsFrom) {
		return false
	}
	if filter.StartsBefore != nil && !e.StartsAt.Before(*filter.StartsBefore) {
		return false
	}
	if filter.Query != "" {
		q := strings.ToLower(filter.Query)
		if !strings.Contains(strings.ToLower(e.Title), q) && !strings.Contains(strings.ToLower(e.Description), q) {
			return false
		}
	}
	if filter.Location != "" && !strings.Contains(strings.ToLower(e.Location), strings.ToLower(filter.Location)) {
		return false
	}
	return true
}

func (m *EventRepository) List(ctx context.Context, filter repositories.EventFilter) ([]models.Event, error) {
	m.record("List", filter)
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	events := []models.Event{}
	for _, e := range m.events {
		if matches(e, filter) {
			events = append(events, m.withCount(e))
		}
	}
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.StartsAt.Equal(b.StartsAt) {
			if filter.Descending {
				return a.StartsAt.After(b.StartsAt)
			}
			return a.StartsAt.Before(b.StartsAt)
		}
		if filter.Descending {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
	return events, nil
}

func (m *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	m.record("GetByID", id)
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	e = m.withCount(e)
	return &e, nil
}

func (m *EventRepository) Create(ctx context.Context, event *models.Event) error {
	m.record("Create", event)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	event.ID = m.nextID
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	m.events[event.ID] = *event
	return nil
}

func (m *EventRepository) Update(ctx context.Context, event *models.Event) error {
	m.record("Update", event)

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.events[event.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	event.CreatedAt = existing.CreatedAt
	event.CreatedBy = existing.CreatedBy
	event.UpdatedAt = time.Now()
	m.events[event.ID] = *event
	return nil
}

func (m *EventRepository) Delete(ctx context.Context, id int64) error {
	m.record("Delete", id)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.events, id)
	delete(m.registrations, id)
	return nil
}

// RegistrationRepository is an in-memory implementation of
// repositories.RegistrationRepository backed by an EventRepository
type RegistrationRepository struct {
	events *EventRepository
}

// NewRegistrationRepository creates a registration repository sharing the event store
func NewRegistrationRepository(events *EventRepository) *RegistrationRepository {
	return &RegistrationRepository{events: events}
}

func (m *RegistrationRepository) Register(ctx context.Context, eventID, userID int64) (*models.Registration, error) {
	m.events.record("Register", []int64{eventID, userID})

	m.events.mu.Lock()
	defer m.events.mu.Unlock()

	e, ok := m.events.events[eventID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	regs := m.events.registrations[eventID]
	for _, r := range regs {
		if r.UserID == userID {
			return nil, repositories.ErrAlreadyRegistered
		}
	}
	if e.Capacity != nil && len(regs) >= *e.Capacity {
		return nil, repositories.ErrEventFull
	}

	reg := models.Registration{EventID: eventID, UserID: userID, CreatedAt: time.Now()}
	m.events.registrations[eventID] = append(regs, reg)
	return &reg, nil
}

func (m *RegistrationRepository) Unregister(ctx context.Context, eventID, userID int64) error {
	m.events.record("Unregister", []int64{eventID, userID})

	m.events.mu.Lock()
	defer m.events.mu.Unlock()

	regs := m.events.registrations[eventID]
	for i, r := range regs {
		if r.UserID == userID {
			m.events.registrations[eventID] = append(regs[:i:i], regs[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (m *RegistrationRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	m.events.mu.Lock()
	defer m.events.mu.Unlock()

	regs := make([]models.Registration, len(m.events.registrations[eventID]))
	copy(regs, m.events.registrations[eventID])
	return regs, nil
}

// Ensure the mocks implement the interfaces
var (
	_ repositories.EventRepository        = (*EventRepository)(nil)
	_ repositories.RegistrationRepository = (*RegistrationRepository)(nil)
)
