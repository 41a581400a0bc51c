package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/posthog/posthog-go"
	"github.com/rs/zerolog/log"

	"github.com/khabaroff/eventdesk/src/models"
)

// AnalyticsService handles product analytics tracking.
// The zero value is disabled and drops every event.
type AnalyticsService struct {
	client  posthog.Client
	enabled bool
}

type posthogLogger struct{}

func (l posthogLogger) Success(m posthog.APIMessage) {
	log.Debug().Str("type", fmt.Sprintf("%T", m)).Msg("PostHog event delivered")
}

func (l posthogLogger) Failure(m posthog.APIMessage, err error) {
	log.Error().Err(err).Str("type", fmt.Sprintf("%T", m)).Msg("PostHog delivery failed")
}

// AnalyticsConfig holds analytics configuration
type AnalyticsConfig struct {
	PostHogAPIKey string
	PostHogHost   string
	Enabled       bool
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(cfg AnalyticsConfig) (*AnalyticsService, error) {
	if !cfg.Enabled || cfg.PostHogAPIKey == "" {
		return &AnalyticsService{}, nil
	}

	client, err := posthog.NewWithConfig(
		cfg.PostHogAPIKey,
		posthog.Config{
			Endpoint:  cfg.PostHogHost,
			Interval:  30 * time.Second,
			BatchSize: 100,
			Callback:  posthogLogger{},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostHog client: %w", err)
	}

	return &AnalyticsService{
		client:  client,
		enabled: true,
	}, nil
}

// Enabled reports whether events are sent
func (s *AnalyticsService) Enabled() bool {
	return s.enabled
}

// Close flushes pending events and closes client
func (s *AnalyticsService) Close() error {
	if !s.enabled {
		return nil
	}
	return s.client.Close()
}

// getEnvironment returns current environment (production, staging, development)
func getEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "production"
	}
	return env
}

// TrackEvent captures a generic event
func (s *AnalyticsService) TrackEvent(ctx context.Context, distinctID, event string, properties map[string]interface{}) {
	if !s.enabled {
		return
	}

	// Add common properties
	if properties == nil {
		properties = make(map[string]interface{})
	}
	properties["timestamp"] = time.Now().Unix()
	properties["environment"] = getEnvironment()

	if err := s.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: properties,
	}); err != nil {
		log.Error().Err(err).Str("event", event).Msg("PostHog enqueue failed")
	} else {
		log.Debug().Str("event", event).Str("distinct_id", distinctID).Msg("PostHog event enqueued")
	}
}

// Identify sets user properties
func (s *AnalyticsService) Identify(ctx context.Context, distinctID string, properties map[string]interface{}) {
	if !s.enabled {
		return
	}

	if err := s.client.Enqueue(posthog.Identify{
		DistinctId: distinctID,
		Properties: properties,
	}); err != nil {
		log.Error().Err(err).Msg("PostHog identify failed")
	}
}

// TrackLogin refreshes the user's person properties and tracks a successful
// login on the given surface
func (s *AnalyticsService) TrackLogin(ctx context.Context, user *models.User, surface string) {
	s.Identify(ctx, distinctID(user.ID), map[string]interface{}{
		"email":    user.Email,
		"name":     user.Name,
		"is_admin": user.IsAdmin,
	})
	s.TrackEvent(ctx, distinctID(user.ID), "user_logged_in", map[string]interface{}{
		"surface": surface,
	})
}

// TrackEmailVerified tracks a completed email verification
func (s *AnalyticsService) TrackEmailVerified(ctx context.Context, userID int64) {
	s.TrackEvent(ctx, distinctID(userID), "email_verified", nil)
}

var _ Tracker = (*AnalyticsService)(nil)
