package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/event-manager/internal/testfixtures"
)

var (
	testNow  = testfixtures.ReferenceTime()
	fixedNow = testfixtures.NewClock(testfixtures.ReferenceTime()).NowFunc()
)

func sequentialIDs(prefix string) func() string {
	return testfixtures.NewIDGenerator(prefix).NextFunc()
}

type stubEventRepo struct {
	events         map[string]Event
	activityCounts map[string]int
	updateErr      error
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{events: make(map[string]Event), activityCounts: make(map[string]int)}
}

func (r *stubEventRepo) CreateEvent(ctx context.Context, event Event) (Event, error) {
	r.events[event.ID] = event
	return event, nil
}

func (r *stubEventRepo) GetEvent(ctx context.Context, id string) (Event, error) {
	event, ok := r.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return event, nil
}

func (r *stubEventRepo) GetEventByEdition(ctx context.Context, eventCategoryID string, edition int) (Event, error) {
	for _, event := range r.events {
		if event.EventCategoryID == eventCategoryID && event.Edition == edition {
			return event, nil
		}
	}
	return Event{}, ErrNotFound
}

func (r *stubEventRepo) UpdateEvent(ctx context.Context, event Event) (Event, error) {
	if r.updateErr != nil {
		return Event{}, r.updateErr
	}
	if _, ok := r.events[event.ID]; !ok {
		return Event{}, ErrNotFound
	}
	r.events[event.ID] = event
	return event, nil
}

func (r *stubEventRepo) DeleteEvent(ctx context.Context, id string) error {
	if _, ok := r.events[id]; !ok {
		return ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *stubEventRepo) ListEvents(ctx context.Context) ([]Event, error) {
	events := make([]Event, 0, len(r.events))
	for _, event := range r.events {
		events = append(events, event)
	}
	return events, nil
}

func (r *stubEventRepo) CountActivities(ctx context.Context, eventID string) (int, error) {
	return r.activityCounts[eventID], nil
}

func validEventInput() EventInput {
	return EventInput{
		Edition:            1,
		Description:        "Annual engineering summit",
		Area:               "engineering",
		StartDate:          time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		RegistryStartDate:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		RegistryEndDate:    time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC),
		EventCategoryID:    "cat-summit",
		ResponsibleUserIDs: []string{"user-1"},
	}
}

func seedEvent(repo *stubEventRepo, id string, mutate func(*Event)) Event {
	input := validEventInput()
	event := Event{
		ID:                 id,
		Edition:            input.Edition,
		Description:        input.Description,
		Area:               input.Area,
		StartDate:          input.StartDate,
		EndDate:            input.EndDate,
		RegistryStartDate:  input.RegistryStartDate,
		RegistryEndDate:    input.RegistryEndDate,
		EventCategoryID:    input.EventCategoryID,
		ResponsibleUserIDs: input.ResponsibleUserIDs,
		CreatedAt:          testNow.AddDate(0, -1, 0),
		UpdatedAt:          testNow.AddDate(0, -1, 0),
	}
	if mutate != nil {
		mutate(&event)
	}
	repo.events[event.ID] = event
	return event
}

func inputFromEvent(event Event) EventInput {
	return EventInput{
		Edition:            event.Edition,
		Description:        event.Description,
		Area:               event.Area,
		StartDate:          event.StartDate,
		EndDate:            event.EndDate,
		RegistryStartDate:  event.RegistryStartDate,
		RegistryEndDate:    event.RegistryEndDate,
		StatusActive:       event.StatusActive,
		StatusVisible:      event.StatusVisible,
		EventCategoryID:    event.EventCategoryID,
		ResponsibleUserIDs: event.ResponsibleUserIDs,
	}
}

func TestEventServiceCreateEvent(t *testing.T) {
	t.Run("creates an inactive invisible event", func(t *testing.T) {
		repo := newStubEventRepo()
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := validEventInput()
		input.StatusActive = true
		input.StatusVisible = true

		event, err := service.CreateEvent(context.Background(), CreateEventParams{Input: input})
		if err != nil {
			t.Fatalf("CreateEvent returned error: %v", err)
		}
		if event.StatusActive || event.StatusVisible {
			t.Fatalf("new event must start inactive and invisible, got active=%v visible=%v", event.StatusActive, event.StatusVisible)
		}
		if event.ID != "event-1" {
			t.Fatalf("event ID = %q, want event-1", event.ID)
		}
		if !event.StartDate.Equal(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("start date not normalized to midnight: %v", event.StartDate)
		}
	})

	t.Run("rejects duplicate edition in the same category", func(t *testing.T) {
		repo := newStubEventRepo()
		seedEvent(repo, "existing", nil)
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		_, err := service.CreateEvent(context.Background(), CreateEventParams{Input: validEventInput()})
		if !errors.Is(err, ErrConflictingEdition) {
			t.Fatalf("expected ErrConflictingEdition, got %v", err)
		}
	})

	t.Run("allows the same edition in another category", func(t *testing.T) {
		repo := newStubEventRepo()
		seedEvent(repo, "existing", nil)
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := validEventInput()
		input.EventCategoryID = "cat-workshop"
		if _, err := service.CreateEvent(context.Background(), CreateEventParams{Input: input}); err != nil {
			t.Fatalf("CreateEvent returned error: %v", err)
		}
	})

	t.Run("rejects an inverted event window", func(t *testing.T) {
		repo := newStubEventRepo()
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := validEventInput()
		input.EndDate = input.StartDate.AddDate(0, 0, -1)
		_, err := service.CreateEvent(context.Background(), CreateEventParams{Input: input})
		if !errors.Is(err, ErrEndDateBeforeStartDate) {
			t.Fatalf("expected ErrEndDateBeforeStartDate, got %v", err)
		}
	})

	t.Run("rejects an inverted registry window", func(t *testing.T) {
		repo := newStubEventRepo()
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := validEventInput()
		input.RegistryEndDate = input.RegistryStartDate.AddDate(0, 0, -1)
		_, err := service.CreateEvent(context.Background(), CreateEventParams{Input: input})
		if !errors.Is(err, ErrRegistryEndBeforeStartDate) {
			t.Fatalf("expected ErrRegistryEndBeforeStartDate, got %v", err)
		}
	})

	t.Run("rejects empty responsible users", func(t *testing.T) {
		repo := newStubEventRepo()
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := validEventInput()
		input.ResponsibleUserIDs = []string{"  ", ""}
		_, err := service.CreateEvent(context.Background(), CreateEventParams{Input: input})
		if !errors.Is(err, ErrResponsibleUsersUndefined) {
			t.Fatalf("expected ErrResponsibleUsersUndefined, got %v", err)
		}
	})

	t.Run("reports missing required fields", func(t *testing.T) {
		repo := newStubEventRepo()
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := validEventInput()
		input.EventCategoryID = ""
		input.StartDate = time.Time{}
		_, err := service.CreateEvent(context.Background(), CreateEventParams{Input: input})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["event_category_id"]; !ok {
			t.Fatalf("expected event_category_id field error, got %v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["start_date"]; !ok {
			t.Fatalf("expected start_date field error, got %v", vErr.FieldErrors)
		}
	})
}

func TestEventServiceUpdateEvent(t *testing.T) {
	t.Run("description stays editable after the event ended", func(t *testing.T) {
		repo := newStubEventRepo()
		event := seedEvent(repo, "past", func(e *Event) {
			e.StartDate = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			e.EndDate = time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
		})
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := inputFromEvent(event)
		input.Description = "Corrected summary"
		updated, err := service.UpdateEvent(context.Background(), UpdateEventParams{EventID: event.ID, Input: input})
		if err != nil {
			t.Fatalf("UpdateEvent returned error: %v", err)
		}
		if updated.Description != "Corrected summary" {
			t.Fatalf("description = %q, want updated value", updated.Description)
		}
	})

	t.Run("edition locks after the event ended", func(t *testing.T) {
		repo := newStubEventRepo()
		event := seedEvent(repo, "past", func(e *Event) {
			e.StartDate = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			e.EndDate = time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
		})
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := inputFromEvent(event)
		input.Edition = event.Edition + 1
		_, err := service.UpdateEvent(context.Background(), UpdateEventParams{EventID: event.ID, Input: input})
		if !errors.Is(err, ErrEventChangeRestriction) {
			t.Fatalf("expected ErrEventChangeRestriction, got %v", err)
		}
	})

	t.Run("dates lock once the event has activities", func(t *testing.T) {
		repo := newStubEventRepo()
		event := seedEvent(repo, "future", nil)
		repo.activityCounts[event.ID] = 2
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := inputFromEvent(event)
		input.StartDate = event.StartDate.AddDate(0, 0, 1)
		input.EndDate = event.EndDate.AddDate(0, 0, 1)
		_, err := service.UpdateEvent(context.Background(), UpdateEventParams{EventID: event.ID, Input: input})
		if !errors.Is(err, ErrEventChangeRestriction) {
			t.Fatalf("expected ErrEventChangeRestriction, got %v", err)
		}
	})

	t.Run("dates move freely while the event is future and empty", func(t *testing.T) {
		repo := newStubEventRepo()
		event := seedEvent(repo, "future", nil)
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := inputFromEvent(event)
		input.StartDate = event.StartDate.AddDate(0, 0, 7)
		input.EndDate = event.EndDate.AddDate(0, 0, 7)
		updated, err := service.UpdateEvent(context.Background(), UpdateEventParams{EventID: event.ID, Input: input})
		if err != nil {
			t.Fatalf("UpdateEvent returned error: %v", err)
		}
		if !updated.StartDate.Equal(input.StartDate) {
			t.Fatalf("start date = %v, want %v", updated.StartDate, input.StartDate)
		}
	})

	t.Run("category locks once the event started", func(t *testing.T) {
		repo := newStubEventRepo()
		event := seedEvent(repo, "ongoing", func(e *Event) {
			e.StartDate = time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)
			e.EndDate = time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)
		})
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := inputFromEvent(event)
		input.EventCategoryID = "cat-other"
		_, err := service.UpdateEvent(context.Background(), UpdateEventParams{EventID: event.ID, Input: input})
		if !errors.Is(err, ErrEventChangeRestriction) {
			t.Fatalf("expected ErrEventChangeRestriction, got %v", err)
		}
	})

	t.Run("edition change into an occupied slot is rejected", func(t *testing.T) {
		repo := newStubEventRepo()
		seedEvent(repo, "holder", func(e *Event) { e.Edition = 2 })
		event := seedEvent(repo, "mover", nil)
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		input := inputFromEvent(event)
		input.Edition = 2
		_, err := service.UpdateEvent(context.Background(), UpdateEventParams{EventID: event.ID, Input: input})
		if !errors.Is(err, ErrConflictingEdition) {
			t.Fatalf("expected ErrConflictingEdition, got %v", err)
		}
	})

	t.Run("unknown event maps to not found", func(t *testing.T) {
		repo := newStubEventRepo()
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		_, err := service.UpdateEvent(context.Background(), UpdateEventParams{EventID: "missing", Input: validEventInput()})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestEventServiceDeleteEvent(t *testing.T) {
	t.Run("deleting an absent event reports zero deletions", func(t *testing.T) {
		repo := newStubEventRepo()
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		deleted, err := service.DeleteEvent(context.Background(), "missing")
		if err != nil {
			t.Fatalf("DeleteEvent returned error: %v", err)
		}
		if deleted != 0 {
			t.Fatalf("deleted = %d, want 0", deleted)
		}
	})

	t.Run("deletes a future inactive empty event", func(t *testing.T) {
		repo := newStubEventRepo()
		event := seedEvent(repo, "future", nil)
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		deleted, err := service.DeleteEvent(context.Background(), event.ID)
		if err != nil {
			t.Fatalf("DeleteEvent returned error: %v", err)
		}
		if deleted != 1 {
			t.Fatalf("deleted = %d, want 1", deleted)
		}
		if _, ok := repo.events[event.ID]; ok {
			t.Fatal("event still present after delete")
		}
	})

	t.Run("refuses an active event", func(t *testing.T) {
		repo := newStubEventRepo()
		event := seedEvent(repo, "active", func(e *Event) { e.StatusActive = true })
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		_, err := service.DeleteEvent(context.Background(), event.ID)
		if !errors.Is(err, ErrEventDeleteRestriction) {
			t.Fatalf("expected ErrEventDeleteRestriction, got %v", err)
		}
	})

	t.Run("refuses a started event", func(t *testing.T) {
		repo := newStubEventRepo()
		event := seedEvent(repo, "ongoing", func(e *Event) {
			e.StartDate = time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)
			e.EndDate = time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)
		})
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		_, err := service.DeleteEvent(context.Background(), event.ID)
		if !errors.Is(err, ErrEventDeleteRestriction) {
			t.Fatalf("expected ErrEventDeleteRestriction, got %v", err)
		}
	})

	t.Run("refuses an event that owns activities", func(t *testing.T) {
		repo := newStubEventRepo()
		event := seedEvent(repo, "future", nil)
		repo.activityCounts[event.ID] = 1
		service := NewEventService(repo, sequentialIDs("event"), fixedNow)

		_, err := service.DeleteEvent(context.Background(), event.ID)
		if !errors.Is(err, ErrEventDeleteRestriction) {
			t.Fatalf("expected ErrEventDeleteRestriction, got %v", err)
		}
	})
}
