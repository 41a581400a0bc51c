package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khabaroff/eventdesk/src/logging"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/repositories"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

const filterDateLayout = "2006-01-02"

// EventInput is the submitted event form
type EventInput struct {
	Title       string `form:"title" json:"title" validate:"required,max=255"`
	Description string `form:"description" json:"description" validate:"max=5000"`
	Location    string `form:"location" json:"location" validate:"required,max=255"`
	StartsAt    string `form:"starts_at" json:"starts_at" validate:"required"`
	EndsAt      string `form:"ends_at" json:"ends_at"`
	Capacity    *int   `form:"capacity" json:"capacity" validate:"omitempty,min=1"`
}

func (in *EventInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.StartsAt = strings.TrimSpace(in.StartsAt)
	in.EndsAt = strings.TrimSpace(in.EndsAt)
}

func (in EventInput) old() map[string]string {
	return map[string]string{
		"title":     in.Title,
		"location":  in.Location,
		"starts_at": in.StartsAt,
		"ends_at":   in.EndsAt,
	}
}

// EventQuery is a free-form event search. Dates use YYYY-MM-DD and are inclusive.
type EventQuery struct {
	Q        string `form:"q"`
	Location string `form:"location"`
	From     string `form:"from"`
	To       string `form:"to"`
}

// EventService manages events
type EventService struct {
	events    repositories.EventRepository
	validator *Validator
	sanitizer *bluemonday.Policy
	now       func() time.Time
	logger    zerolog.Logger
}

// NewEventService creates an event service
func NewEventService(events repositories.EventRepository, validator *Validator) *EventService {
	return &EventService{
		events:    events,
		validator: validator,
		sanitizer: bluemonday.UGCPolicy(),
		now:       time.Now,
		logger:    logging.NewLogger("events"),
	}
}

// List returns all events ordered by start time
func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	return s.list(ctx, repositories.EventFilter{})
}

// Upcoming returns events that have not started yet, soonest first
func (s *EventService) Upcoming(ctx context.Context) ([]models.Event, error) {
	now := s.now()
	return s.list(ctx, repositories.EventFilter{StartsFrom: &now})
}

// Past returns events that already started, most recent first
func (s *EventService) Past(ctx context.Context) ([]models.Event, error) {
	now := s.now()
	return s.list(ctx, repositories.EventFilter{StartsBefore: &now, Descending: true})
}

// Filter searches events by text, location and date range
func (s *EventService) Filter(ctx context.Context, q EventQuery) ([]models.Event, error) {
	verr := newValidationError(map[string]string{
		"q": q.Q, "location": q.Location, "from": q.From, "to": q.To,
	})
	filter := repositories.EventFilter{
		Query:    strings.TrimSpace(q.Q),
		Location: strings.TrimSpace(q.Location),
	}

	if q.From != "" {
		from, err := time.ParseInLocation(filterDateLayout, q.From, time.UTC)
		if err != nil {
			verr.Add("from", "A(z) from érvényes dátum kell legyen (ÉÉÉÉ-HH-NN).")
		} else {
			filter.StartsFrom = &from
		}
	}
	if q.To != "" {
		to, err := time.ParseInLocation(filterDateLayout, q.To, time.UTC)
		if err != nil {
			verr.Add("to", "A(z) to érvényes dátum kell legyen (ÉÉÉÉ-HH-NN).")
		} else {
			end := to.AddDate(0, 0, 1)
			filter.StartsBefore = &end
		}
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	return s.list(ctx, filter)
}

func (s *EventService) list(ctx context.Context, filter repositories.EventFilter) ([]models.Event, error) {
	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Get returns a single event
func (s *EventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", id, err)
	}
	return event, nil
}

func (s *EventService) bind(in EventInput, event *models.Event) error {
	in.normalize()
	verr := newValidationError(in.old())
	s.validator.Struct(in, verr)

	var startsAt time.Time
	if in.StartsAt != "" {
		t, err := time.Parse(time.RFC3339, in.StartsAt)
		if err != nil {
			verr.Add("starts_at", "A(z) kezdés időpontja érvényes RFC3339 dátum kell legyen.")
		} else {
			startsAt = t
		}
	}

	var endsAt *time.Time
	if in.EndsAt != "" {
		t, err := time.Parse(time.RFC3339, in.EndsAt)
		switch {
		case err != nil:
			verr.Add("ends_at", "A(z) befejezés időpontja érvényes RFC3339 dátum kell legyen.")
		case !startsAt.IsZero() && !t.After(startsAt):
			verr.Add("ends_at", "A(z) befejezés időpontja a kezdés utáni időpont kell legyen.")
		default:
			endsAt = &t
		}
	}

	if err := verr.errOrNil(); err != nil {
		return err
	}

	event.Title = in.Title
	event.Description = s.sanitizer.Sanitize(in.Description)
	event.Location = in.Location
	event.StartsAt = startsAt
	event.EndsAt = endsAt
	event.Capacity = in.Capacity
	return nil
}

// Create stores a new event. Admin only.
func (s *EventService) Create(ctx context.Context, caller *models.User, in EventInput) (*models.Event, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}

	event := &models.Event{CreatedBy: &caller.ID}
	if err := s.bind(in, event); err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info().Int64("caller_id", caller.ID).Int64("event_id", event.ID).Msg("Event created")
	return event, nil
}

// Update rewrites an event. Admin only.
func (s *EventService) Update(ctx context.Context, caller *models.User, id int64, in EventInput) (*models.Event, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.bind(in, event); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.logger.Info().Int64("caller_id", caller.ID).Int64("event_id", event.ID).Msg("Event updated")
	return event, nil
}

// Delete removes an event and its registrations. Admin only.
func (s *EventService) Delete(ctx context.Context, caller *models.User, id int64) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}

	s.logger.Info().Int64("caller_id", caller.ID).Int64("event_id", id).Msg("Event deleted")
	return nil
}
