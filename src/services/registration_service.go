package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/khabaroff/eventdesk/src/logging"
	"github.com/khabaroff/eventdesk/src/metrics"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/repositories"
	"github.com/rs/zerolog"
)

// RegistrationService signs users up for events
type RegistrationService struct {
	events        repositories.EventRepository
	registrations repositories.RegistrationRepository
	users         repositories.UserRepository
	tracker       Tracker
	metrics       metrics.Recorder
	now           func() time.Time
	logger        zerolog.Logger
}

// NewRegistrationService creates a registration service
func NewRegistrationService(events repositories.EventRepository, registrations repositories.RegistrationRepository, users repositories.UserRepository) *RegistrationService {
	return &RegistrationService{
		events:        events,
		registrations: registrations,
		users:         users,
		tracker:       &AnalyticsService{},
		metrics:       metrics.Nop{},
		now:           time.Now,
		logger:        logging.NewLogger("registrations"),
	}
}

// WithTracker sets the analytics tracker
func (s *RegistrationService) WithTracker(t Tracker) *RegistrationService {
	s.tracker = t
	return s
}

// WithMetrics sets the metrics recorder
func (s *RegistrationService) WithMetrics(m metrics.Recorder) *RegistrationService {
	s.metrics = m
	return s
}

func (s *RegistrationService) loadEvent(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", id, err)
	}
	return event, nil
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return "registered"
	case errors.Is(err, ErrEventFull):
		return "full"
	case errors.Is(err, ErrAlreadyRegistered):
		return "duplicate"
	case errors.Is(err, ErrEventInPast):
		return "past"
	case errors.Is(err, ErrEventNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// Register signs the caller up for an event that has not started yet
func (s *RegistrationService) Register(ctx context.Context, caller *models.User, eventID int64) (reg *models.Registration, err error) {
	defer func() { s.metrics.RecordRegistration(registrationOutcome(err)) }()

	if caller == nil {
		return nil, ErrUnauthenticated
	}
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.HasStarted(s.now()) {
		return nil, ErrEventInPast
	}

	reg, err = s.registrations.Register(ctx, event.ID, caller.ID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyRegistered):
			return nil, ErrAlreadyRegistered
		case errors.Is(err, repositories.ErrEventFull):
			return nil, ErrEventFull
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	s.logger.Info().Int64("user_id", caller.ID).Int64("event_id", event.ID).Msg("User registered for event")
	s.tracker.TrackEvent(ctx, distinctID(caller.ID), "event_registered", map[string]interface{}{
		"event_id": event.ID,
	})
	return reg, nil
}

// Unregister withdraws the caller's registration
func (s *RegistrationService) Unregister(ctx context.Context, caller *models.User, eventID int64) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return err
	}
	return s.remove(ctx, eventID, caller.ID)
}

// RemoveUser deletes another user's registration. Admin only.
func (s *RegistrationService) RemoveUser(ctx context.Context, caller *models.User, eventID, userID int64) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	if err := s.remove(ctx, eventID, userID); err != nil {
		return err
	}
	s.logger.Info().Int64("caller_id", caller.ID).Int64("user_id", userID).Int64("event_id", eventID).Msg("Registration removed by admin")
	return nil
}

func (s *RegistrationService) remove(ctx context.Context, eventID, userID int64) error {
	if err := s.registrations.Unregister(ctx, eventID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotRegistered
		}
		return fmt.Errorf("failed to unregister: %w", err)
	}
	return nil
}

// Attendees lists the users registered for an event. Admin only.
func (s *RegistrationService) Attendees(ctx context.Context, caller *models.User, eventID int64) ([]models.Registration, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}
