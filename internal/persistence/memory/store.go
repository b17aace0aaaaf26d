// Package memory provides a mutex-guarded in-memory implementation of the
// persistence repositories, used by tests and as a lightweight backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/event-manager/internal/persistence"
)

// Store keeps every entity in process memory behind one lock, mirroring the
// atomicity the sqlite backend gets from transactions.
type Store struct {
	mu            sync.RWMutex
	events        map[string]persistence.Event
	activities    map[string]persistence.Activity
	registrations map[string]persistence.Registration
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		events:        make(map[string]persistence.Event),
		activities:    make(map[string]persistence.Activity),
		registrations: make(map[string]persistence.Registration),
	}
}

// --- EventRepository implementation ---

// CreateEvent stores a new event, enforcing edition uniqueness per category.
func (s *Store) CreateEvent(ctx context.Context, event persistence.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.events {
		if existing.EventCategoryID == event.EventCategoryID && existing.Edition == event.Edition {
			return persistence.ErrDuplicate
		}
	}

	s.events[event.ID] = cloneEvent(event)
	return nil
}

// UpdateEvent replaces an existing event, enforcing edition uniqueness.
func (s *Store) UpdateEvent(ctx context.Context, event persistence.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; !ok {
		return persistence.ErrNotFound
	}
	for id, existing := range s.events {
		if id == event.ID {
			continue
		}
		if existing.EventCategoryID == event.EventCategoryID && existing.Edition == event.Edition {
			return persistence.ErrDuplicate
		}
	}

	s.events[event.ID] = cloneEvent(event)
	return nil
}

// GetEvent retrieves an event by ID.
func (s *Store) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return persistence.Event{}, persistence.ErrNotFound
	}
	return cloneEvent(event), nil
}

// GetEventByEdition retrieves the event holding the edition number within a category.
func (s *Store) GetEventByEdition(ctx context.Context, eventCategoryID string, edition int) (persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, event := range s.events {
		if event.EventCategoryID == eventCategoryID && event.Edition == edition {
			return cloneEvent(event), nil
		}
	}
	return persistence.Event{}, persistence.ErrNotFound
}

// ListEvents returns all events ordered by start date.
func (s *Store) ListEvents(ctx context.Context) ([]persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]persistence.Event, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, cloneEvent(event))
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].ID < events[j].ID
		}
		return events[i].StartDate.Before(events[j].StartDate)
	})
	return events, nil
}

// DeleteEvent removes an event by ID.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// CountActivities counts the activities owned by an event.
func (s *Store) CountActivities(ctx context.Context, eventID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, activity := range s.activities {
		if activity.EventID == eventID {
			count++
		}
	}
	return count, nil
}

// --- ActivityRepository implementation ---

// CreateActivity stores a new activity with its schedules.
func (s *Store) CreateActivity(ctx context.Context, activity persistence.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.activities[activity.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.events[activity.EventID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if err := s.findRoomConflict(activity); err != nil {
		return err
	}

	s.activities[activity.ID] = cloneActivity(activity)
	return nil
}

// UpdateActivity replaces an activity and its schedule set atomically,
// clearing registrations when requested.
func (s *Store) UpdateActivity(ctx context.Context, activity persistence.Activity, invalidateRegistrations bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.activities[activity.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if err := s.findRoomConflict(activity); err != nil {
		return err
	}

	activity.EventID = existing.EventID
	activity.CreatedAt = existing.CreatedAt
	s.activities[activity.ID] = cloneActivity(activity)

	if invalidateRegistrations {
		for id, registration := range s.registrations {
			if registration.ActivityID == activity.ID {
				delete(s.registrations, id)
			}
		}
	}
	return nil
}

// GetActivity retrieves an activity by ID.
func (s *Store) GetActivity(ctx context.Context, id string) (persistence.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activity, ok := s.activities[id]
	if !ok {
		return persistence.Activity{}, persistence.ErrNotFound
	}
	return cloneActivity(activity), nil
}

// ListActivitiesForEvent returns all activities owned by an event.
func (s *Store) ListActivitiesForEvent(ctx context.Context, eventID string) ([]persistence.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activities := make([]persistence.Activity, 0)
	for _, activity := range s.activities {
		if activity.EventID == eventID {
			activities = append(activities, cloneActivity(activity))
		}
	}
	sortActivities(activities)
	return activities, nil
}

// ListActivitiesInCategory returns the activities of one (event, category) pair.
func (s *Store) ListActivitiesInCategory(ctx context.Context, eventID, activityCategoryID string) ([]persistence.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activities := make([]persistence.Activity, 0)
	for _, activity := range s.activities {
		if activity.EventID == eventID && activity.ActivityCategoryID == activityCategoryID {
			activities = append(activities, cloneActivity(activity))
		}
	}
	sortActivities(activities)
	return activities, nil
}

// ListSchedulesInRoom returns every schedule using the room across all activities.
func (s *Store) ListSchedulesInRoom(ctx context.Context, roomID string) ([]persistence.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules := make([]persistence.Schedule, 0)
	for _, activity := range s.activities {
		for _, schedule := range activity.Schedules {
			if schedule.RoomID != nil && *schedule.RoomID == roomID {
				schedules = append(schedules, cloneSchedule(schedule))
			}
		}
	}
	sort.Slice(schedules, func(i, j int) bool {
		if schedules[i].Start.Equal(schedules[j].Start) {
			return schedules[i].ID < schedules[j].ID
		}
		return schedules[i].Start.Before(schedules[j].Start)
	})
	return schedules, nil
}

// DeleteActivity removes an activity with its schedules and registrations.
func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.activities[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.activities, id)

	for regID, registration := range s.registrations {
		if registration.ActivityID == id {
			delete(s.registrations, regID)
		}
	}
	return nil
}

// --- RegistrationRepository implementation ---

// CreateRegistration stores a new registration, rejecting duplicates per
// (activity, user).
func (s *Store) CreateRegistration(ctx context.Context, registration persistence.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.activities[registration.ActivityID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	for _, existing := range s.registrations {
		if existing.ActivityID == registration.ActivityID && existing.UserID == registration.UserID {
			return persistence.ErrDuplicate
		}
	}

	s.registrations[registration.ID] = registration
	return nil
}

// DeleteRegistration removes one user's enrollment in an activity.
func (s *Store) DeleteRegistration(ctx context.Context, activityID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, registration := range s.registrations {
		if registration.ActivityID == activityID && registration.UserID == userID {
			delete(s.registrations, id)
			return nil
		}
	}
	return persistence.ErrNotFound
}

// ListRegistrationsForActivity returns an activity's registrations ordered by time.
func (s *Store) ListRegistrationsForActivity(ctx context.Context, activityID string) ([]persistence.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registrations := make([]persistence.Registration, 0)
	for _, registration := range s.registrations {
		if registration.ActivityID == activityID {
			registrations = append(registrations, registration)
		}
	}
	sort.Slice(registrations, func(i, j int) bool {
		if registrations[i].RegisteredAt.Equal(registrations[j].RegisteredAt) {
			return registrations[i].ID < registrations[j].ID
		}
		return registrations[i].RegisteredAt.Before(registrations[j].RegisteredAt)
	})
	return registrations, nil
}

// CountRegistrations counts an activity's registrations.
func (s *Store) CountRegistrations(ctx context.Context, activityID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, registration := range s.registrations {
		if registration.ActivityID == activityID {
			count++
		}
	}
	return count, nil
}

// DeleteRegistrationsForActivity removes every registration of an activity.
func (s *Store) DeleteRegistrationsForActivity(ctx context.Context, activityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, registration := range s.registrations {
		if registration.ActivityID == activityID {
			delete(s.registrations, id)
		}
	}
	return nil
}

// --- Helpers ---

// findRoomConflict checks the incoming schedule set against every other
// activity's schedules under the store lock, matching the write-transaction
// room check of the sqlite backend. Intervals are half-open, so touching
// endpoints do not collide.
func (s *Store) findRoomConflict(activity persistence.Activity) error {
	for _, schedule := range activity.Schedules {
		if schedule.RoomID == nil || *schedule.RoomID == "" {
			continue
		}
		end := schedule.Start.Add(time.Duration(schedule.DurationMinutes) * time.Minute)
		for _, other := range s.activities {
			if other.ID == activity.ID {
				continue
			}
			for _, existing := range other.Schedules {
				if existing.RoomID == nil || *existing.RoomID != *schedule.RoomID {
					continue
				}
				existingEnd := existing.Start.Add(time.Duration(existing.DurationMinutes) * time.Minute)
				if existing.Start.Before(end) && existingEnd.After(schedule.Start) {
					return &persistence.RoomConflictError{
						RoomID:         *schedule.RoomID,
						ScheduleID:     schedule.ID,
						WithScheduleID: existing.ID,
					}
				}
			}
		}
	}
	return nil
}

func cloneEvent(event persistence.Event) persistence.Event {
	out := event
	out.ResponsibleUserIDs = append([]string(nil), event.ResponsibleUserIDs...)
	return out
}

func cloneActivity(activity persistence.Activity) persistence.Activity {
	out := activity
	out.ResponsibleUserIDs = append([]string(nil), activity.ResponsibleUserIDs...)
	out.TeachingUserIDs = append([]string(nil), activity.TeachingUserIDs...)
	out.Schedules = make([]persistence.Schedule, 0, len(activity.Schedules))
	for _, schedule := range activity.Schedules {
		out.Schedules = append(out.Schedules, cloneSchedule(schedule))
	}
	return out
}

func cloneSchedule(schedule persistence.Schedule) persistence.Schedule {
	out := schedule
	out.RoomID = cloneString(schedule.RoomID)
	out.URL = cloneString(schedule.URL)
	return out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func sortActivities(activities []persistence.Activity) {
	sort.Slice(activities, func(i, j int) bool {
		if activities[i].ActivityCategoryID == activities[j].ActivityCategoryID {
			if activities[i].IndexInCategory == activities[j].IndexInCategory {
				return activities[i].ID < activities[j].ID
			}
			return activities[i].IndexInCategory < activities[j].IndexInCategory
		}
		return activities[i].ActivityCategoryID < activities[j].ActivityCategoryID
	})
}
