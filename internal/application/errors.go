package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/event-manager/internal/scheduling"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a create collides with an existing record.
	ErrAlreadyExists = errors.New("application: already exists")

	// ErrEventChangeRestriction is returned when a change-set touches a field
	// that is locked by the event's temporal state, or tries to move an
	// activity to another event.
	ErrEventChangeRestriction = errors.New("application: event change restricted")
	// ErrConflictingEdition is returned when an edition number is already used
	// within the event category.
	ErrConflictingEdition = errors.New("application: conflicting edition")
	// ErrEndDateBeforeStartDate is returned when an event window ends before it starts.
	ErrEndDateBeforeStartDate = errors.New("application: end date before start date")
	// ErrRegistryEndBeforeStartDate is returned when a registry window ends before it starts.
	ErrRegistryEndBeforeStartDate = errors.New("application: registry end date before registry start date")

	// ErrSchedulesUndefined is returned when an activity would be left without schedules.
	ErrSchedulesUndefined = errors.New("application: schedules undefined")
	// ErrResponsibleUsersUndefined is returned when responsible users would become empty.
	ErrResponsibleUsersUndefined = errors.New("application: responsible users undefined")
	// ErrInvalidVacancyValue is returned for a non-positive vacancy.
	ErrInvalidVacancyValue = errors.New("application: invalid vacancy value")
	// ErrInvalidWorkloadMinutesValue is returned for a non-positive workload.
	ErrInvalidWorkloadMinutesValue = errors.New("application: invalid workload minutes value")

	// ErrActivityDeleteIsHappening blocks deleting an activity while its event is ongoing.
	ErrActivityDeleteIsHappening = errors.New("application: activity delete denied, event is happening")
	// ErrActivityDeleteHasHappened blocks deleting an activity after its event ended.
	ErrActivityDeleteHasHappened = errors.New("application: activity delete denied, event has happened")
	// ErrActivityDeleteHasRegistry blocks deleting an activity with registrations.
	ErrActivityDeleteHasRegistry = errors.New("application: activity delete denied, registrations exist")
	// ErrEventDeleteRestriction blocks deleting an active, started, or populated event.
	ErrEventDeleteRestriction = errors.New("application: event delete restricted")

	// ErrRegistrationClosed is returned when enrolling outside the registry window.
	ErrRegistrationClosed = errors.New("application: registration closed")
	// ErrActivityFull is returned when an activity has no free vacancy left.
	ErrActivityFull = errors.New("application: activity full")
	// ErrAlreadyRegistered is returned on duplicate enrollment.
	ErrAlreadyRegistered = errors.New("application: already registered")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError reports a schedule conflict rejected by the detector.
type ConflictError struct {
	Conflicts []scheduling.Conflict
}

// Error implements the error interface, describing the first conflict found.
func (c *ConflictError) Error() string {
	if c == nil || len(c.Conflicts) == 0 {
		return "schedule conflict"
	}
	first := c.Conflicts[0]
	switch first.Kind {
	case scheduling.ConflictKindInvalidSchedule:
		return fmt.Sprintf("schedule %s has neither a room nor a url", first.ScheduleID)
	case scheduling.ConflictKindSelfOverlap:
		return fmt.Sprintf("schedules %s and %s overlap", first.ScheduleID, first.WithScheduleID)
	case scheduling.ConflictKindRoom:
		room := ""
		if first.RoomID != nil {
			room = *first.RoomID
		}
		return fmt.Sprintf("room %s is already booked by schedule %s", room, first.WithScheduleID)
	default:
		return "schedule conflict"
	}
}

// Kind returns the kind of the first conflict found.
func (c *ConflictError) Kind() scheduling.ConflictKind {
	if c == nil || len(c.Conflicts) == 0 {
		return ""
	}
	return c.Conflicts[0].Kind
}

// conflictSummary renders the conflict list for logging.
func conflictSummary(conflicts []scheduling.Conflict) string {
	parts := make([]string, 0, len(conflicts))
	for _, conflict := range conflicts {
		parts = append(parts, string(conflict.Kind)+":"+conflict.ScheduleID)
	}
	return strings.Join(parts, ",")
}
