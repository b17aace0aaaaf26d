package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/event-manager/internal/persistence"
)

type stubRegistrationRepo struct {
	registrations map[string]Registration
	createErr     error
}

func newStubRegistrationRepo() *stubRegistrationRepo {
	return &stubRegistrationRepo{registrations: make(map[string]Registration)}
}

func (r *stubRegistrationRepo) CreateRegistration(ctx context.Context, registration Registration) (Registration, error) {
	if r.createErr != nil {
		return Registration{}, r.createErr
	}
	r.registrations[registration.ID] = registration
	return registration, nil
}

func (r *stubRegistrationRepo) DeleteRegistration(ctx context.Context, activityID, userID string) error {
	for id, registration := range r.registrations {
		if registration.ActivityID == activityID && registration.UserID == userID {
			delete(r.registrations, id)
			return nil
		}
	}
	return ErrNotFound
}

func (r *stubRegistrationRepo) ListRegistrationsForActivity(ctx context.Context, activityID string) ([]Registration, error) {
	var result []Registration
	for _, registration := range r.registrations {
		if registration.ActivityID == activityID {
			result = append(result, registration)
		}
	}
	return result, nil
}

func (r *stubRegistrationRepo) CountRegistrations(ctx context.Context, activityID string) (int, error) {
	result, _ := r.ListRegistrationsForActivity(ctx, activityID)
	return len(result), nil
}

func newRegistrationFixture(t *testing.T) (*RegistrationService, *stubRegistrationRepo, *stubActivityRepo, *stubEventRepo) {
	t.Helper()
	events := newStubEventRepo()
	seedEvent(events, "event-1", nil)
	activities := newStubActivityRepo()
	seedActivity(activities, "act-1", "event-1")
	registrations := newStubRegistrationRepo()
	service := NewRegistrationService(registrations, activities, events, sequentialIDs("reg"), fixedNow)
	return service, registrations, activities, events
}

func TestRegistrationServiceRegister(t *testing.T) {
	t.Run("registers while the registry window is open", func(t *testing.T) {
		service, repo, _, _ := newRegistrationFixture(t)

		registration, err := service.Register(context.Background(), RegisterParams{ActivityID: "act-1", UserID: "user-7"})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if registration.UserID != "user-7" || registration.ActivityID != "act-1" {
			t.Fatalf("unexpected registration %+v", registration)
		}
		if len(repo.registrations) != 1 {
			t.Fatalf("stored registrations = %d, want 1", len(repo.registrations))
		}
	})

	t.Run("registry end date is inclusive through its day", func(t *testing.T) {
		service, _, _, events := newRegistrationFixture(t)
		event := events.events["event-1"]
		event.RegistryEndDate = time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
		events.events["event-1"] = event

		if _, err := service.Register(context.Background(), RegisterParams{ActivityID: "act-1", UserID: "user-7"}); err != nil {
			t.Fatalf("Register returned error on the closing day: %v", err)
		}
	})

	t.Run("refuses before the window opens", func(t *testing.T) {
		service, _, _, events := newRegistrationFixture(t)
		event := events.events["event-1"]
		event.RegistryStartDate = time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
		events.events["event-1"] = event

		_, err := service.Register(context.Background(), RegisterParams{ActivityID: "act-1", UserID: "user-7"})
		if !errors.Is(err, ErrRegistrationClosed) {
			t.Fatalf("expected ErrRegistrationClosed, got %v", err)
		}
	})

	t.Run("refuses after the window closed", func(t *testing.T) {
		service, _, _, events := newRegistrationFixture(t)
		event := events.events["event-1"]
		event.RegistryStartDate = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		event.RegistryEndDate = time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
		events.events["event-1"] = event

		_, err := service.Register(context.Background(), RegisterParams{ActivityID: "act-1", UserID: "user-7"})
		if !errors.Is(err, ErrRegistrationClosed) {
			t.Fatalf("expected ErrRegistrationClosed, got %v", err)
		}
	})

	t.Run("refuses once vacancy is exhausted", func(t *testing.T) {
		service, repo, activities, _ := newRegistrationFixture(t)
		activity := activities.activities["act-1"]
		activity.Vacancy = 1
		activities.activities["act-1"] = activity
		repo.registrations["seed"] = Registration{ID: "seed", ActivityID: "act-1", UserID: "user-1", RegisteredAt: testNow.Add(-time.Hour)}

		_, err := service.Register(context.Background(), RegisterParams{ActivityID: "act-1", UserID: "user-7"})
		if !errors.Is(err, ErrActivityFull) {
			t.Fatalf("expected ErrActivityFull, got %v", err)
		}
	})

	t.Run("refuses a duplicate enrollment", func(t *testing.T) {
		service, repo, _, _ := newRegistrationFixture(t)
		repo.registrations["seed"] = Registration{ID: "seed", ActivityID: "act-1", UserID: "user-7", RegisteredAt: testNow.Add(-time.Hour)}

		_, err := service.Register(context.Background(), RegisterParams{ActivityID: "act-1", UserID: "user-7"})
		if !errors.Is(err, ErrAlreadyRegistered) {
			t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
		}
	})

	t.Run("maps a storage duplicate to already registered", func(t *testing.T) {
		service, repo, _, _ := newRegistrationFixture(t)
		repo.createErr = persistence.ErrDuplicate

		_, err := service.Register(context.Background(), RegisterParams{ActivityID: "act-1", UserID: "user-7"})
		if !errors.Is(err, ErrAlreadyRegistered) {
			t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
		}
	})

	t.Run("requires activity and user", func(t *testing.T) {
		service, _, _, _ := newRegistrationFixture(t)

		_, err := service.Register(context.Background(), RegisterParams{})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(vErr.FieldErrors) != 2 {
			t.Fatalf("field errors = %v, want activity_id and user_id", vErr.FieldErrors)
		}
	})

	t.Run("unknown activity maps to not found", func(t *testing.T) {
		service, _, _, _ := newRegistrationFixture(t)

		_, err := service.Register(context.Background(), RegisterParams{ActivityID: "missing", UserID: "user-7"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRegistrationServiceUnregister(t *testing.T) {
	t.Run("removes an existing enrollment", func(t *testing.T) {
		service, repo, _, _ := newRegistrationFixture(t)
		repo.registrations["seed"] = Registration{ID: "seed", ActivityID: "act-1", UserID: "user-7"}

		deleted, err := service.Unregister(context.Background(), "act-1", "user-7")
		if err != nil {
			t.Fatalf("Unregister returned error: %v", err)
		}
		if deleted != 1 {
			t.Fatalf("deleted = %d, want 1", deleted)
		}
	})

	t.Run("absent enrollment reports zero deletions", func(t *testing.T) {
		service, _, _, _ := newRegistrationFixture(t)

		deleted, err := service.Unregister(context.Background(), "act-1", "user-7")
		if err != nil {
			t.Fatalf("Unregister returned error: %v", err)
		}
		if deleted != 0 {
			t.Fatalf("deleted = %d, want 0", deleted)
		}
	})
}

func TestRegistrationServiceListForActivity(t *testing.T) {
	service, repo, _, _ := newRegistrationFixture(t)
	repo.registrations["b"] = Registration{ID: "b", ActivityID: "act-1", UserID: "user-2", RegisteredAt: testNow.Add(-time.Hour)}
	repo.registrations["a"] = Registration{ID: "a", ActivityID: "act-1", UserID: "user-1", RegisteredAt: testNow.Add(-2 * time.Hour)}
	repo.registrations["c"] = Registration{ID: "c", ActivityID: "other", UserID: "user-3", RegisteredAt: testNow}

	registrations, err := service.ListForActivity(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("ListForActivity returned error: %v", err)
	}
	if len(registrations) != 2 {
		t.Fatalf("registrations = %d, want 2", len(registrations))
	}
	if registrations[0].ID != "a" || registrations[1].ID != "b" {
		t.Fatalf("registrations out of order: %v then %v", registrations[0].ID, registrations[1].ID)
	}
}
