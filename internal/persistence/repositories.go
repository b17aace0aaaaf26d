package persistence

import "context"

// EventRepository exposes CRUD operations for events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	// GetEventByEdition resolves the event carrying the edition number within
	// an event category, backing the edition uniqueness check.
	GetEventByEdition(ctx context.Context, eventCategoryID string, edition int) (Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	DeleteEvent(ctx context.Context, id string) error
	CountActivities(ctx context.Context, eventID string) (int, error)
}

// ActivityRepository stores activities together with their schedule sets.
type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity Activity) error
	// UpdateActivity replaces the activity row and reconciles its schedule
	// rows against activity.Schedules in a single transaction. When
	// invalidateRegistrations is set, every registration of the activity is
	// removed in the same transaction.
	UpdateActivity(ctx context.Context, activity Activity, invalidateRegistrations bool) error
	GetActivity(ctx context.Context, id string) (Activity, error)
	ListActivitiesForEvent(ctx context.Context, eventID string) ([]Activity, error)
	// ListActivitiesInCategory returns the activities of one
	// (event, activity category) pair, backing index assignment.
	ListActivitiesInCategory(ctx context.Context, eventID, activityCategoryID string) ([]Activity, error)
	// ListSchedulesInRoom returns every schedule using the room across the
	// whole system, backing the global room conflict check.
	ListSchedulesInRoom(ctx context.Context, roomID string) ([]Schedule, error)
	DeleteActivity(ctx context.Context, id string) error
}

// RegistrationRepository stores activity enrollments.
type RegistrationRepository interface {
	CreateRegistration(ctx context.Context, registration Registration) error
	DeleteRegistration(ctx context.Context, activityID, userID string) error
	ListRegistrationsForActivity(ctx context.Context, activityID string) ([]Registration, error)
	CountRegistrations(ctx context.Context, activityID string) (int, error)
	DeleteRegistrationsForActivity(ctx context.Context, activityID string) error
}
