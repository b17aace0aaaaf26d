package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/event-manager/internal/persistence"
	"github.com/example/event-manager/internal/scheduling"
)

// RegistrationRepository captures the persistence interactions needed by the service.
type RegistrationRepository interface {
	CreateRegistration(ctx context.Context, registration Registration) (Registration, error)
	DeleteRegistration(ctx context.Context, activityID, userID string) error
	ListRegistrationsForActivity(ctx context.Context, activityID string) ([]Registration, error)
	CountRegistrations(ctx context.Context, activityID string) (int, error)
}

// RegistrationService handles enrollment of users into activities. The
// registry window of the owning event and the activity's vacancy bound every
// enrollment.
type RegistrationService struct {
	registrations RegistrationRepository
	activities    ActivityRepository
	events        EventGateway
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewRegistrationService wires dependencies for enrollment operations.
func NewRegistrationService(registrations RegistrationRepository, activities ActivityRepository, events EventGateway, idGenerator func() string, now func() time.Time) *RegistrationService {
	return NewRegistrationServiceWithLogger(registrations, activities, events, idGenerator, now, nil)
}

// NewRegistrationServiceWithLogger constructs a registration service with a specified logger.
func NewRegistrationServiceWithLogger(registrations RegistrationRepository, activities ActivityRepository, events EventGateway, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RegistrationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RegistrationService{
		registrations: registrations,
		activities:    activities,
		events:        events,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *RegistrationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RegistrationService", operation, attrs...)
}

// Register enrolls a user in an activity while the owning event's registry
// window is open and a vacancy remains.
func (s *RegistrationService) Register(ctx context.Context, params RegisterParams) (registration Registration, err error) {
	if s == nil {
		return Registration{}, fmt.Errorf("RegistrationService is nil")
	}
	if s.registrations == nil || s.activities == nil || s.events == nil {
		return Registration{}, fmt.Errorf("registration dependencies not configured")
	}

	logger := s.loggerWith(ctx, "Register", "activity_id", params.ActivityID, "user_id", params.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("registration_id", registration.ID).InfoContext(ctx, "user registered")
	}()

	if params.ActivityID == "" || params.UserID == "" {
		vErr := &ValidationError{}
		if params.ActivityID == "" {
			vErr.add("activity_id", "activity is required")
		}
		if params.UserID == "" {
			vErr.add("user_id", "user is required")
		}
		return Registration{}, vErr
	}

	activity, err := s.activities.GetActivity(ctx, params.ActivityID)
	if err != nil {
		return Registration{}, mapActivityRepoError(err)
	}

	event, err := s.events.GetEvent(ctx, activity.EventID)
	if err != nil {
		return Registration{}, mapEventRepoError(err)
	}

	now := s.now()
	windowStart := scheduling.DayStart(event.RegistryStartDate)
	windowEnd := scheduling.DayEnd(event.RegistryEndDate)
	if scheduling.Classify(windowStart, windowEnd, now) != scheduling.StateOngoing {
		return Registration{}, ErrRegistrationClosed
	}

	existing, err := s.registrations.ListRegistrationsForActivity(ctx, activity.ID)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, persistence.ErrNotFound) {
		return Registration{}, err
	}
	for _, reg := range existing {
		if reg.UserID == params.UserID {
			return Registration{}, ErrAlreadyRegistered
		}
	}
	if len(existing) >= activity.Vacancy {
		return Registration{}, ErrActivityFull
	}

	registration = Registration{
		ID:           s.idGenerator(),
		ActivityID:   activity.ID,
		UserID:       params.UserID,
		RegisteredAt: now,
	}

	persisted, err := s.registrations.CreateRegistration(ctx, registration)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return Registration{}, ErrAlreadyRegistered
		}
		return Registration{}, err
	}
	return persisted, nil
}

// Unregister removes a user's enrollment. Removing an absent enrollment is an
// idempotent success reported as zero deletions.
func (s *RegistrationService) Unregister(ctx context.Context, activityID, userID string) (deleted int64, err error) {
	if s == nil {
		return 0, fmt.Errorf("RegistrationService is nil")
	}
	if s.registrations == nil {
		return 0, fmt.Errorf("registration repository not configured")
	}

	logger := s.loggerWith(ctx, "Unregister", "activity_id", activityID, "user_id", userID)

	if err = s.registrations.DeleteRegistration(ctx, activityID, userID); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			logger.InfoContext(ctx, "registration already absent")
			return 0, nil
		}
		logger.ErrorContext(ctx, "failed to unregister", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}

	logger.InfoContext(ctx, "user unregistered")
	return 1, nil
}

// ListForActivity enumerates an activity's registrations ordered by
// enrollment time.
func (s *RegistrationService) ListForActivity(ctx context.Context, activityID string) ([]Registration, error) {
	if s == nil || s.registrations == nil {
		return nil, nil
	}

	registrations, err := s.registrations.ListRegistrationsForActivity(ctx, activityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	ordered := make([]Registration, len(registrations))
	copy(ordered, registrations)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RegisteredAt.Equal(ordered[j].RegisteredAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].RegisteredAt.Before(ordered[j].RegisteredAt)
	})
	return ordered, nil
}
