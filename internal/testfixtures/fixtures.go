// Package testfixtures provides deterministic clocks, identifier generators,
// and entity builders shared by the test suites.
package testfixtures

import (
	"time"

	"github.com/example/event-manager/internal/persistence"
)

// referenceTime anchors every fixture: an instant in the middle of a working
// day so future and past windows are easy to derive.
var referenceTime = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// EventFixture builds a valid future event relative to ReferenceTime.
// Mutators customise the result.
func EventFixture(id string, mutators ...func(*persistence.Event)) persistence.Event {
	event := persistence.Event{
		ID:                 id,
		Edition:            1,
		Description:        "Annual engineering summit",
		Area:               "engineering",
		StartDate:          time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		RegistryStartDate:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		RegistryEndDate:    time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC),
		EventCategoryID:    "cat-summit",
		ResponsibleUserIDs: []string{"user-1"},
		CreatedAt:          referenceTime.AddDate(0, -1, 0),
		UpdatedAt:          referenceTime.AddDate(0, -1, 0),
	}
	for _, mutate := range mutators {
		mutate(&event)
	}
	return event
}

// PastEvent rewrites an event fixture's window to lie fully before ReferenceTime.
func PastEvent(event *persistence.Event) {
	event.StartDate = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	event.EndDate = time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	event.RegistryStartDate = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	event.RegistryEndDate = time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)
}

// OngoingEvent rewrites an event fixture's window to contain ReferenceTime.
func OngoingEvent(event *persistence.Event) {
	event.StartDate = time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)
	event.EndDate = time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)
}

// ActivityFixture builds a valid activity owned by eventID with one scheduled
// occurrence in room-a.
func ActivityFixture(id, eventID string, mutators ...func(*persistence.Activity)) persistence.Activity {
	room := "room-a"
	activity := persistence.Activity{
		ID:                 id,
		EventID:            eventID,
		Title:              "Introduction to distributed tracing",
		Description:        "Hands-on session",
		Vacancy:            30,
		WorkloadMinutes:    120,
		ActivityCategoryID: "cat-talks",
		IndexInCategory:    1,
		ResponsibleUserIDs: []string{"user-1"},
		Schedules: []persistence.Schedule{
			{
				ID:              id + "-s1",
				ActivityID:      id,
				Start:           time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC),
				DurationMinutes: 60,
				RoomID:          &room,
			},
		},
		CreatedAt: referenceTime.AddDate(0, -1, 0),
		UpdatedAt: referenceTime.AddDate(0, -1, 0),
	}
	for _, mutate := range mutators {
		mutate(&activity)
	}
	return activity
}

// ScheduleAt moves an activity fixture's single schedule to the given slot.
func ScheduleAt(start time.Time, durationMinutes int, roomID string) func(*persistence.Activity) {
	return func(activity *persistence.Activity) {
		room := roomID
		for i := range activity.Schedules {
			activity.Schedules[i].Start = start
			activity.Schedules[i].DurationMinutes = durationMinutes
			if roomID == "" {
				activity.Schedules[i].RoomID = nil
			} else {
				activity.Schedules[i].RoomID = &room
			}
		}
	}
}

// RegistrationFixture builds an enrollment of userID in activityID at
// ReferenceTime.
func RegistrationFixture(id, activityID, userID string) persistence.Registration {
	return persistence.Registration{
		ID:           id,
		ActivityID:   activityID,
		UserID:       userID,
		RegisteredAt: referenceTime,
	}
}
