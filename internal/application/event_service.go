package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/event-manager/internal/persistence"
	"github.com/example/event-manager/internal/scheduling"
)

// EventRepository captures the persistence interactions needed by the service.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) (Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	GetEventByEdition(ctx context.Context, eventCategoryID string, edition int) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context) ([]Event, error)
	CountActivities(ctx context.Context, eventID string) (int, error)
}

// EventService orchestrates validation and persistence for event operations.
type EventService struct {
	events      EventRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService wires dependencies for event operations.
func NewEventService(events EventRepository, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(events, idGenerator, now, nil)
}

// NewEventServiceWithLogger constructs an event service with a specified logger.
func NewEventServiceWithLogger(events EventRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{events: events, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// TemporalState classifies the event's own window at the service clock.
// The end date is date-granular and inclusive through the end of its day.
func (s *EventService) TemporalState(event Event) scheduling.TemporalState {
	return scheduling.Classify(scheduling.DayStart(event.StartDate), scheduling.DayEnd(event.EndDate), s.now())
}

// CreateEvent validates the request before delegating to persistence. New
// events always start inactive and invisible regardless of the input flags.
func (s *EventService) CreateEvent(ctx context.Context, params CreateEventParams) (event Event, err error) {
	if s == nil {
		return Event{}, fmt.Errorf("EventService is nil")
	}

	logger := s.loggerWith(ctx, "CreateEvent", "edition", params.Input.Edition)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID).InfoContext(ctx, "event created")
	}()

	input := params.Input
	if err = validateEventInput(input); err != nil {
		return Event{}, err
	}

	if err = s.ensureEditionFree(ctx, input.EventCategoryID, input.Edition, ""); err != nil {
		return Event{}, err
	}

	createdAt := s.now()
	event = Event{
		ID:                 s.idGenerator(),
		Edition:            input.Edition,
		Description:        strings.TrimSpace(input.Description),
		Area:               strings.TrimSpace(input.Area),
		StartDate:          scheduling.DayStart(input.StartDate),
		EndDate:            scheduling.DayStart(input.EndDate),
		RegistryStartDate:  scheduling.DayStart(input.RegistryStartDate),
		RegistryEndDate:    scheduling.DayStart(input.RegistryEndDate),
		StatusActive:       false,
		StatusVisible:      false,
		EventCategoryID:    input.EventCategoryID,
		ResponsibleUserIDs: uniqueStrings(input.ResponsibleUserIDs),
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}

	if s.events == nil {
		return event, nil
	}

	persisted, err := s.events.CreateEvent(ctx, event)
	if err != nil {
		return Event{}, mapEventRepoError(err)
	}
	return persisted, nil
}

// UpdateEvent applies the temporal mutation guard to the change-set before
// persisting it.
func (s *EventService) UpdateEvent(ctx context.Context, params UpdateEventParams) (event Event, err error) {
	if s == nil {
		return Event{}, fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdateEvent", "event_id", params.EventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event updated")
	}()

	current, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return Event{}, mapEventRepoError(err)
	}

	input := params.Input
	input.StartDate = scheduling.DayStart(input.StartDate)
	input.EndDate = scheduling.DayStart(input.EndDate)
	input.RegistryStartDate = scheduling.DayStart(input.RegistryStartDate)
	input.RegistryEndDate = scheduling.DayStart(input.RegistryEndDate)

	state := s.TemporalState(current)
	changed := changedEventFields(current, input)

	hasActivities := false
	if fieldsContain(changed, EventFieldStartDate, EventFieldEndDate) {
		count, cErr := s.events.CountActivities(ctx, current.ID)
		if cErr != nil {
			return Event{}, cErr
		}
		hasActivities = count > 0
	}

	for _, field := range changed {
		if EventFieldDecision(field, state, hasActivities) == DecisionRejected {
			return Event{}, fmt.Errorf("%w: %s is locked while the event is %s", ErrEventChangeRestriction, field, state)
		}
	}

	if err = validateEventInput(input); err != nil {
		return Event{}, err
	}

	if fieldsContain(changed, EventFieldEdition, EventFieldEventCategory) {
		if err = s.ensureEditionFree(ctx, input.EventCategoryID, input.Edition, current.ID); err != nil {
			return Event{}, err
		}
	}

	updated := current
	updated.Edition = input.Edition
	updated.Description = strings.TrimSpace(input.Description)
	updated.Area = strings.TrimSpace(input.Area)
	updated.StartDate = input.StartDate
	updated.EndDate = input.EndDate
	updated.RegistryStartDate = input.RegistryStartDate
	updated.RegistryEndDate = input.RegistryEndDate
	updated.StatusActive = input.StatusActive
	updated.StatusVisible = input.StatusVisible
	updated.EventCategoryID = input.EventCategoryID
	updated.ResponsibleUserIDs = uniqueStrings(input.ResponsibleUserIDs)
	updated.UpdatedAt = s.now()

	persisted, err := s.events.UpdateEvent(ctx, updated)
	if err != nil {
		return Event{}, mapEventRepoError(err)
	}
	return persisted, nil
}

// DeleteEvent removes an event when the deletion guard permits it. Deleting
// an absent event is an idempotent success reported as zero deletions.
func (s *EventService) DeleteEvent(ctx context.Context, eventID string) (deleted int64, err error) {
	if s == nil {
		return 0, fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return 0, fmt.Errorf("event repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEvent", "event_id", eventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("deleted", deleted).InfoContext(ctx, "event delete finished")
	}()

	current, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return 0, nil
		}
		return 0, mapEventRepoError(err)
	}

	state := s.TemporalState(current)
	if state != scheduling.StateFuture || current.StatusActive {
		return 0, ErrEventDeleteRestriction
	}

	count, err := s.events.CountActivities(ctx, current.ID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, ErrEventDeleteRestriction
	}

	if err = s.events.DeleteEvent(ctx, current.ID); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return 0, nil
		}
		return 0, mapEventRepoError(err)
	}
	return 1, nil
}

// GetEvent loads a single event.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return Event{}, mapEventRepoError(err)
	}
	return event, nil
}

// ListEvents enumerates events ordered by start date.
func (s *EventService) ListEvents(ctx context.Context) ([]Event, error) {
	if s == nil || s.events == nil {
		return nil, nil
	}

	events, err := s.events.ListEvents(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].StartDate.Equal(ordered[j].StartDate) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].StartDate.Before(ordered[j].StartDate)
	})
	return ordered, nil
}

func (s *EventService) ensureEditionFree(ctx context.Context, categoryID string, edition int, selfID string) error {
	if s.events == nil {
		return nil
	}
	existing, err := s.events.GetEventByEdition(ctx, categoryID, edition)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return fmt.Errorf("%w: edition %d already exists in category %s", ErrConflictingEdition, edition, categoryID)
}

func validateEventInput(input EventInput) error {
	vErr := &ValidationError{}

	if input.StartDate.IsZero() {
		vErr.add("start_date", "start date is required")
	}
	if input.EndDate.IsZero() {
		vErr.add("end_date", "end date is required")
	}
	if input.RegistryStartDate.IsZero() {
		vErr.add("registry_start_date", "registry start date is required")
	}
	if input.RegistryEndDate.IsZero() {
		vErr.add("registry_end_date", "registry end date is required")
	}
	if strings.TrimSpace(input.EventCategoryID) == "" {
		vErr.add("event_category_id", "event category is required")
	}
	if vErr.HasErrors() {
		return vErr
	}

	if input.EndDate.Before(input.StartDate) {
		return ErrEndDateBeforeStartDate
	}
	if input.RegistryEndDate.Before(input.RegistryStartDate) {
		return ErrRegistryEndBeforeStartDate
	}
	if len(uniqueStrings(input.ResponsibleUserIDs)) == 0 {
		return ErrResponsibleUsersUndefined
	}
	return nil
}

func fieldsContain(fields []EventField, targets ...EventField) bool {
	for _, field := range fields {
		for _, target := range targets {
			if field == target {
				return true
			}
		}
	}
	return false
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func mapEventRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrConflictingEdition
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return ErrEndDateBeforeStartDate
	}
	return err
}
