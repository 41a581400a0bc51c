package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/repositories"
	"github.com/khabaroff/eventdesk/src/repositories/mock"
)

var fixedNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestEventService() (*EventService, *mock.EventRepository) {
	repo := mock.NewEventRepository()
	svc := NewEventService(repo, NewValidator(DefaultPasswordPolicy()))
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func intPtr(v int) *int { return &v }

func TestEventService_Listings(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestEventService()

	repo.Seed(models.Event{Title: "Régi konferencia", Location: "Szeged", StartsAt: fixedNow.Add(-72 * time.Hour)})
	repo.Seed(models.Event{Title: "Tegnapi meetup", Location: "Budapest", StartsAt: fixedNow.Add(-24 * time.Hour)})
	repo.Seed(models.Event{Title: "Go workshop", Description: "Haladó Go", Location: "Budapest", StartsAt: fixedNow.Add(48 * time.Hour)})
	repo.Seed(models.Event{Title: "Holnapi előadás", Location: "Debrecen", StartsAt: fixedNow.Add(24 * time.Hour)})

	t.Run("upcoming soonest first", func(t *testing.T) {
		events, err := svc.Upcoming(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(events) != 2 || events[0].Title != "Holnapi előadás" || events[1].Title != "Go workshop" {
			t.Errorf("unexpected upcoming order: %+v", events)
		}
	})

	t.Run("past most recent first", func(t *testing.T) {
		events, err := svc.Past(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(events) != 2 || events[0].Title != "Tegnapi meetup" {
			t.Errorf("unexpected past order: %+v", events)
		}
	})

	t.Run("filter by text and location", func(t *testing.T) {
		events, err := svc.Filter(ctx, EventQuery{Q: "go", Location: "budapest"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(events) != 1 || events[0].Title != "Go workshop" {
			t.Errorf("unexpected filter result: %+v", events)
		}
	})

	t.Run("filter date range is inclusive", func(t *testing.T) {
		day := fixedNow.Add(24 * time.Hour).Format("2006-01-02")
		events, err := svc.Filter(ctx, EventQuery{From: day, To: day})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(events) != 1 || events[0].Title != "Holnapi előadás" {
			t.Errorf("unexpected range result: %+v", events)
		}
	})

	t.Run("filter rejects malformed dates", func(t *testing.T) {
		_, err := svc.Filter(ctx, EventQuery{From: "10/05/2026"})
		var verr *ValidationError
		if !errors.As(err, &verr) || !verr.Has("from") {
			t.Fatalf("expected from ValidationError, got %v", err)
		}
	})
}

func TestEventService_Create(t *testing.T) {
	ctx := context.Background()
	admin := &models.User{ID: 1, IsAdmin: true}

	t.Run("sanitizes description", func(t *testing.T) {
		svc, _ := newTestEventService()

		event, err := svc.Create(ctx, admin, EventInput{
			Title:       "Go meetup",
			Description: `<p>Hello</p><script>alert("x")</script>`,
			Location:    "Budapest",
			StartsAt:    "2026-06-01T18:00:00+02:00",
			Capacity:    intPtr(30),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if event.Description != "<p>Hello</p>" {
			t.Errorf("expected sanitized description, got %q", event.Description)
		}
		if event.CreatedBy == nil || *event.CreatedBy != admin.ID {
			t.Error("expected creator to be recorded")
		}
	})

	t.Run("validates fields", func(t *testing.T) {
		svc, _ := newTestEventService()

		_, err := svc.Create(ctx, admin, EventInput{
			Title:    "",
			Location: "Budapest",
			StartsAt: "2026-06-01T18:00:00Z",
			EndsAt:   "2026-06-01T17:00:00Z",
			Capacity: intPtr(0),
		})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"title", "ends_at", "capacity"} {
			if !verr.Has(field) {
				t.Errorf("expected error for %s, got %v", field, verr.Fields)
			}
		}
	})

	t.Run("rejects non-RFC3339 start", func(t *testing.T) {
		svc, _ := newTestEventService()

		_, err := svc.Create(ctx, admin, EventInput{Title: "X", Location: "Y", StartsAt: "tomorrow"})
		var verr *ValidationError
		if !errors.As(err, &verr) || !verr.Has("starts_at") {
			t.Fatalf("expected starts_at ValidationError, got %v", err)
		}
	})

	t.Run("non-admin is refused", func(t *testing.T) {
		svc, repo := newTestEventService()

		_, err := svc.Create(ctx, &models.User{ID: 2}, EventInput{Title: "X", Location: "Y", StartsAt: "2026-06-01T18:00:00Z"})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if len(repo.Calls["Create"]) != 0 {
			t.Error("expected no create call")
		}
	})
}

func TestEventService_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	admin := &models.User{ID: 1, IsAdmin: true}
	svc, repo := newTestEventService()
	event := repo.Seed(models.Event{Title: "Old", Location: "Pécs", StartsAt: fixedNow.Add(time.Hour)})

	updated, err := svc.Update(ctx, admin, event.ID, EventInput{Title: "New", Location: "Győr", StartsAt: "2026-07-01T10:00:00Z"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Title != "New" || updated.Location != "Győr" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	if _, err := svc.Update(ctx, admin, 404, EventInput{}); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, admin, event.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := repo.GetByID(ctx, event.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("expected event to be gone, got %v", err)
	}
}
