package application

import (
	"github.com/example/event-manager/internal/scheduling"
)

// FieldDecision is the outcome of asking the mutation guard about one field
// of a change-set.
type FieldDecision int

const (
	// DecisionAllowed permits the change.
	DecisionAllowed FieldDecision = iota
	// DecisionIgnored silently discards the change without failing the request.
	DecisionIgnored
	// DecisionRejected fails the whole change-set.
	DecisionRejected
)

// EventField names an editable event attribute in the guard's decision table.
type EventField string

const (
	EventFieldEdition           EventField = "edition"
	EventFieldDescription       EventField = "description"
	EventFieldArea              EventField = "area"
	EventFieldStartDate         EventField = "startDate"
	EventFieldEndDate           EventField = "endDate"
	EventFieldStatusActive      EventField = "statusActive"
	EventFieldStatusVisible     EventField = "statusVisible"
	EventFieldResponsibleUsers  EventField = "responsibleUsers"
	EventFieldEventCategory     EventField = "eventCategory"
	EventFieldRegistryStartDate EventField = "registryStartDate"
	EventFieldRegistryEndDate   EventField = "registryEndDate"
)

// EventFieldDecision resolves whether field may change while the event is in
// state. hasActivities locks the event window: schedules are anchored to the
// old dates, so the window cannot move once activities exist.
func EventFieldDecision(field EventField, state scheduling.TemporalState, hasActivities bool) FieldDecision {
	switch field {
	case EventFieldDescription, EventFieldArea:
		return DecisionAllowed
	case EventFieldEdition, EventFieldStatusActive, EventFieldStatusVisible,
		EventFieldResponsibleUsers, EventFieldRegistryStartDate, EventFieldRegistryEndDate:
		if state == scheduling.StatePast {
			return DecisionRejected
		}
		return DecisionAllowed
	case EventFieldStartDate, EventFieldEndDate:
		if state != scheduling.StateFuture || hasActivities {
			return DecisionRejected
		}
		return DecisionAllowed
	case EventFieldEventCategory:
		if state != scheduling.StateFuture {
			return DecisionRejected
		}
		return DecisionAllowed
	default:
		return DecisionRejected
	}
}

// changedEventFields diffs the persisted event against the requested input
// and lists the fields the change-set actually touches.
func changedEventFields(current Event, input EventInput) []EventField {
	var changed []EventField

	if input.Edition != current.Edition {
		changed = append(changed, EventFieldEdition)
	}
	if input.Description != current.Description {
		changed = append(changed, EventFieldDescription)
	}
	if input.Area != current.Area {
		changed = append(changed, EventFieldArea)
	}
	if !input.StartDate.Equal(current.StartDate) {
		changed = append(changed, EventFieldStartDate)
	}
	if !input.EndDate.Equal(current.EndDate) {
		changed = append(changed, EventFieldEndDate)
	}
	if input.StatusActive != current.StatusActive {
		changed = append(changed, EventFieldStatusActive)
	}
	if input.StatusVisible != current.StatusVisible {
		changed = append(changed, EventFieldStatusVisible)
	}
	if !sameStringSet(input.ResponsibleUserIDs, current.ResponsibleUserIDs) {
		changed = append(changed, EventFieldResponsibleUsers)
	}
	if input.EventCategoryID != current.EventCategoryID {
		changed = append(changed, EventFieldEventCategory)
	}
	if !input.RegistryStartDate.Equal(current.RegistryStartDate) {
		changed = append(changed, EventFieldRegistryStartDate)
	}
	if !input.RegistryEndDate.Equal(current.RegistryEndDate) {
		changed = append(changed, EventFieldRegistryEndDate)
	}

	return changed
}

// CertificateEmissionDecision resolves the readyForCertificateEmission
// transition. The flag moves false to true only once every schedule end lies
// in the past; reverting true to false is an idempotent no-op.
func CertificateEmissionDecision(current, requested bool, allSchedulesEnded bool) FieldDecision {
	switch {
	case current == requested:
		return DecisionIgnored
	case current && !requested:
		return DecisionIgnored
	case allSchedulesEnded:
		return DecisionAllowed
	default:
		return DecisionRejected
	}
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, value := range a {
		set[value]++
	}
	for _, value := range b {
		set[value]--
		if set[value] < 0 {
			return false
		}
	}
	return true
}
