package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/example/event-manager/internal/persistence"
	"github.com/example/event-manager/internal/scheduling"
)

// ActivityRepository captures the persistence interactions needed by the service.
type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity Activity) (Activity, error)
	GetActivity(ctx context.Context, id string) (Activity, error)
	// UpdateActivity persists the activity with its final schedule set as one
	// atomic unit; when invalidateRegistrations is set, every registration of
	// the activity is removed in the same unit.
	UpdateActivity(ctx context.Context, activity Activity, invalidateRegistrations bool) (Activity, error)
	DeleteActivity(ctx context.Context, id string) error
	ListActivitiesForEvent(ctx context.Context, eventID string) ([]Activity, error)
	ListActivitiesInCategory(ctx context.Context, eventID, activityCategoryID string) ([]Activity, error)
	ListSchedulesInRoom(ctx context.Context, roomID string) ([]Schedule, error)
}

// EventGateway exposes the event lookups the activity service depends on.
type EventGateway interface {
	GetEvent(ctx context.Context, id string) (Event, error)
}

// RegistrationCounter reports how many users are enrolled in an activity.
type RegistrationCounter interface {
	CountRegistrations(ctx context.Context, activityID string) (int, error)
}

// ActivityService orchestrates validation, index assignment, conflict
// detection, and the schedule-change cascade for activities.
type ActivityService struct {
	activities    ActivityRepository
	events        EventGateway
	registrations RegistrationCounter
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewActivityService wires dependencies for activity operations.
func NewActivityService(activities ActivityRepository, events EventGateway, registrations RegistrationCounter, idGenerator func() string, now func() time.Time) *ActivityService {
	return NewActivityServiceWithLogger(activities, events, registrations, idGenerator, now, nil)
}

// NewActivityServiceWithLogger constructs an activity service with a specified logger.
func NewActivityServiceWithLogger(activities ActivityRepository, events EventGateway, registrations RegistrationCounter, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ActivityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ActivityService{
		activities:    activities,
		events:        events,
		registrations: registrations,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *ActivityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ActivityService", operation, attrs...)
}

// CreateActivity validates the request, assigns the next index within the
// activity's (event, category) pair, and checks the schedule set for
// conflicts before persisting. Any index a client supplies is discarded.
func (s *ActivityService) CreateActivity(ctx context.Context, params CreateActivityParams) (activity Activity, err error) {
	if s == nil {
		return Activity{}, fmt.Errorf("ActivityService is nil")
	}
	if s.activities == nil || s.events == nil {
		return Activity{}, fmt.Errorf("activity dependencies not configured")
	}

	logger := s.loggerWith(ctx, "CreateActivity", "event_id", params.Input.EventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create activity", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("activity_id", activity.ID, "index_in_category", activity.IndexInCategory).InfoContext(ctx, "activity created")
	}()

	input := params.Input
	if err = validateActivityInput(input); err != nil {
		return Activity{}, err
	}

	event, err := s.events.GetEvent(ctx, input.EventID)
	if err != nil {
		return Activity{}, mapEventRepoError(err)
	}
	if s.eventState(event) == scheduling.StatePast {
		return Activity{}, fmt.Errorf("%w: cannot add activities to a past event", ErrEventChangeRestriction)
	}

	index, err := s.nextIndex(ctx, event.ID, input.ActivityCategoryID)
	if err != nil {
		return Activity{}, err
	}

	activityID := s.idGenerator()
	schedules := make([]Schedule, 0, len(input.Schedules))
	for _, in := range input.Schedules {
		schedules = append(schedules, Schedule{
			ID:              s.idGenerator(),
			ActivityID:      activityID,
			Start:           in.Start,
			DurationMinutes: in.DurationMinutes,
			RoomID:          normalizeOptionalString(in.RoomID),
			URL:             normalizeOptionalString(in.URL),
		})
	}

	if err = s.ensureNoConflicts(ctx, activityID, schedules); err != nil {
		return Activity{}, err
	}

	createdAt := s.now()
	activity = Activity{
		ID:                 activityID,
		EventID:            event.ID,
		Title:              strings.TrimSpace(input.Title),
		Description:        input.Description,
		Vacancy:            input.Vacancy,
		WorkloadMinutes:    input.WorkloadMinutes,
		ActivityCategoryID: input.ActivityCategoryID,
		IndexInCategory:    index,
		ResponsibleUserIDs: uniqueStrings(input.ResponsibleUserIDs),
		TeachingUserIDs:    uniqueStrings(input.TeachingUserIDs),
		Schedules:          schedules,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}

	persisted, err := s.activities.CreateActivity(ctx, activity)
	if err != nil {
		return Activity{}, mapActivityRepoError(err)
	}
	return persisted, nil
}

// UpdateActivity reconciles the requested schedule set against the persisted
// one, validates the result for conflicts, and applies the registration
// invalidation cascade when timing changed. The returned plan tells the
// caller what the cascade did.
func (s *ActivityService) UpdateActivity(ctx context.Context, params UpdateActivityParams) (activity Activity, plan scheduling.ReconcilePlan, err error) {
	if s == nil {
		return Activity{}, scheduling.ReconcilePlan{}, fmt.Errorf("ActivityService is nil")
	}
	if s.activities == nil || s.events == nil {
		return Activity{}, scheduling.ReconcilePlan{}, fmt.Errorf("activity dependencies not configured")
	}

	logger := s.loggerWith(ctx, "UpdateActivity", "activity_id", params.ActivityID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update activity", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("timing_changed", plan.TimingChanged).InfoContext(ctx, "activity updated")
	}()

	current, err := s.activities.GetActivity(ctx, params.ActivityID)
	if err != nil {
		return Activity{}, scheduling.ReconcilePlan{}, mapActivityRepoError(err)
	}

	input := params.Input
	if input.EventID != "" && input.EventID != current.EventID {
		return Activity{}, scheduling.ReconcilePlan{}, fmt.Errorf("%w: an activity cannot move to another event", ErrEventChangeRestriction)
	}

	if err = validateActivityInput(input); err != nil {
		return Activity{}, scheduling.ReconcilePlan{}, err
	}

	requested := make([]scheduling.Schedule, 0, len(input.Schedules))
	for _, in := range input.Schedules {
		requested = append(requested, scheduling.Schedule{
			ID:              in.ID,
			ActivityID:      current.ID,
			Start:           in.Start,
			DurationMinutes: in.DurationMinutes,
			RoomID:          normalizeOptionalString(in.RoomID),
			URL:             normalizeOptionalString(in.URL),
		})
	}

	plan = scheduling.Reconcile(toCoreSchedules(current.Schedules), requested)
	if plan.Empty() {
		return Activity{}, scheduling.ReconcilePlan{}, ErrSchedulesUndefined
	}

	for i := range plan.ToCreate {
		if plan.ToCreate[i].ID == "" {
			plan.ToCreate[i].ID = s.idGenerator()
		}
	}
	final := plan.Final()

	if err = s.ensureNoConflicts(ctx, current.ID, fromCoreSchedules(current.ID, final)); err != nil {
		return Activity{}, scheduling.ReconcilePlan{}, err
	}

	ready := current.ReadyForCertificateEmission
	switch CertificateEmissionDecision(current.ReadyForCertificateEmission, input.ReadyForCertificateEmission, s.allEnded(final)) {
	case DecisionAllowed:
		ready = true
	case DecisionRejected:
		return Activity{}, scheduling.ReconcilePlan{}, fmt.Errorf("%w: certificate emission requires every schedule to have ended", ErrEventChangeRestriction)
	}

	updated := current
	updated.Title = strings.TrimSpace(input.Title)
	updated.Description = input.Description
	updated.Vacancy = input.Vacancy
	updated.WorkloadMinutes = input.WorkloadMinutes
	if input.ActivityCategoryID != "" && input.ActivityCategoryID != current.ActivityCategoryID {
		updated.ActivityCategoryID = input.ActivityCategoryID
		index, iErr := s.nextIndex(ctx, current.EventID, input.ActivityCategoryID)
		if iErr != nil {
			return Activity{}, scheduling.ReconcilePlan{}, iErr
		}
		updated.IndexInCategory = index
	}
	updated.ResponsibleUserIDs = uniqueStrings(input.ResponsibleUserIDs)
	updated.TeachingUserIDs = uniqueStrings(input.TeachingUserIDs)
	updated.ReadyForCertificateEmission = ready
	updated.Schedules = fromCoreSchedules(current.ID, final)
	updated.UpdatedAt = s.now()

	persisted, err := s.activities.UpdateActivity(ctx, updated, plan.TimingChanged)
	if err != nil {
		return Activity{}, scheduling.ReconcilePlan{}, mapActivityRepoError(err)
	}
	return persisted, plan, nil
}

// DeleteActivity removes an activity when the deletion guard permits it.
// Deleting an absent activity is an idempotent success reported as zero
// deletions.
func (s *ActivityService) DeleteActivity(ctx context.Context, activityID string) (deleted int64, err error) {
	if s == nil {
		return 0, fmt.Errorf("ActivityService is nil")
	}
	if s.activities == nil || s.events == nil {
		return 0, fmt.Errorf("activity dependencies not configured")
	}

	logger := s.loggerWith(ctx, "DeleteActivity", "activity_id", activityID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete activity", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("deleted", deleted).InfoContext(ctx, "activity delete finished")
	}()

	current, err := s.activities.GetActivity(ctx, activityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return 0, nil
		}
		return 0, mapActivityRepoError(err)
	}

	event, err := s.events.GetEvent(ctx, current.EventID)
	if err != nil {
		return 0, mapEventRepoError(err)
	}

	switch s.eventState(event) {
	case scheduling.StateOngoing:
		return 0, ErrActivityDeleteIsHappening
	case scheduling.StatePast:
		return 0, ErrActivityDeleteHasHappened
	}

	if s.registrations != nil {
		count, cErr := s.registrations.CountRegistrations(ctx, current.ID)
		if cErr != nil {
			return 0, cErr
		}
		if count > 0 {
			return 0, ErrActivityDeleteHasRegistry
		}
	}

	if err = s.activities.DeleteActivity(ctx, current.ID); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return 0, nil
		}
		return 0, mapActivityRepoError(err)
	}
	return 1, nil
}

// GetActivity loads a single activity.
func (s *ActivityService) GetActivity(ctx context.Context, activityID string) (Activity, error) {
	if s == nil || s.activities == nil {
		return Activity{}, fmt.Errorf("activity repository not configured")
	}
	activity, err := s.activities.GetActivity(ctx, activityID)
	if err != nil {
		return Activity{}, mapActivityRepoError(err)
	}
	return activity, nil
}

// ListActivitiesForEvent enumerates an event's activities ordered by category
// and index.
func (s *ActivityService) ListActivitiesForEvent(ctx context.Context, eventID string) ([]Activity, error) {
	if s == nil || s.activities == nil {
		return nil, nil
	}

	activities, err := s.activities.ListActivitiesForEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	ordered := make([]Activity, len(activities))
	copy(ordered, activities)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ActivityCategoryID == ordered[j].ActivityCategoryID {
			return ordered[i].IndexInCategory < ordered[j].IndexInCategory
		}
		return ordered[i].ActivityCategoryID < ordered[j].ActivityCategoryID
	})
	return ordered, nil
}

func (s *ActivityService) eventState(event Event) scheduling.TemporalState {
	return scheduling.Classify(scheduling.DayStart(event.StartDate), scheduling.DayEnd(event.EndDate), s.now())
}

func (s *ActivityService) nextIndex(ctx context.Context, eventID, categoryID string) (int, error) {
	siblings, err := s.activities.ListActivitiesInCategory(ctx, eventID, categoryID)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, persistence.ErrNotFound) {
		return 0, err
	}

	members := make([]scheduling.CategoryMember, 0, len(siblings))
	for _, sibling := range siblings {
		members = append(members, scheduling.CategoryMember{
			EventID:            sibling.EventID,
			ActivityCategoryID: sibling.ActivityCategoryID,
			IndexInCategory:    sibling.IndexInCategory,
		})
	}
	key := scheduling.CategoryKey{EventID: eventID, ActivityCategoryID: categoryID}
	return scheduling.NextCategoryIndex(key, members), nil
}

// ensureNoConflicts runs the conflict detector over the candidate set against
// the system-wide universe of same-room schedules, excluding the activity's
// own persisted rows since they are being replaced.
func (s *ActivityService) ensureNoConflicts(ctx context.Context, activityID string, candidates []Schedule) error {
	core := toCoreSchedules(candidates)

	rooms := make(map[string]struct{})
	for _, candidate := range candidates {
		if candidate.RoomID != nil && *candidate.RoomID != "" {
			rooms[*candidate.RoomID] = struct{}{}
		}
	}

	var universe []scheduling.Schedule
	for roomID := range rooms {
		occupants, err := s.activities.ListSchedulesInRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
				continue
			}
			return err
		}
		for _, occupant := range occupants {
			if occupant.ActivityID == activityID {
				continue
			}
			universe = append(universe, scheduling.Schedule{
				ID:              occupant.ID,
				ActivityID:      occupant.ActivityID,
				Start:           occupant.Start,
				DurationMinutes: occupant.DurationMinutes,
				RoomID:          occupant.RoomID,
				URL:             occupant.URL,
			})
		}
	}

	conflicts := scheduling.FindConflicts(core, universe)
	if len(conflicts) == 0 {
		return nil
	}
	s.loggerWith(ctx, "ensureNoConflicts", "activity_id", activityID).
		WarnContext(ctx, "schedule conflicts detected", "conflicts", conflictSummary(conflicts))
	return &ConflictError{Conflicts: conflicts}
}

func (s *ActivityService) allEnded(schedules []scheduling.Schedule) bool {
	now := s.now()
	for _, schedule := range schedules {
		if !schedule.End().Before(now) {
			return false
		}
	}
	return len(schedules) > 0
}

func validateActivityInput(input ActivityInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if strings.TrimSpace(input.ActivityCategoryID) == "" && input.EventID != "" {
		vErr.add("activity_category_id", "activity category is required")
	}
	for i, schedule := range input.Schedules {
		if schedule.DurationMinutes <= 0 {
			vErr.add(fmt.Sprintf("schedules[%d].duration_minutes", i), "duration must be positive")
		}
		if schedule.Start.IsZero() {
			vErr.add(fmt.Sprintf("schedules[%d].start", i), "start is required")
		}
		if schedule.URL != nil && strings.TrimSpace(*schedule.URL) != "" {
			if _, err := url.ParseRequestURI(strings.TrimSpace(*schedule.URL)); err != nil {
				vErr.add(fmt.Sprintf("schedules[%d].url", i), "must be a valid URL")
			}
		}
	}
	if vErr.HasErrors() {
		return vErr
	}

	if input.Vacancy <= 0 {
		return ErrInvalidVacancyValue
	}
	if input.WorkloadMinutes <= 0 {
		return ErrInvalidWorkloadMinutesValue
	}
	if len(uniqueStrings(input.ResponsibleUserIDs)) == 0 {
		return ErrResponsibleUsersUndefined
	}
	if len(input.Schedules) == 0 {
		return ErrSchedulesUndefined
	}
	return nil
}

func toCoreSchedules(schedules []Schedule) []scheduling.Schedule {
	core := make([]scheduling.Schedule, 0, len(schedules))
	for _, schedule := range schedules {
		core = append(core, scheduling.Schedule{
			ID:              schedule.ID,
			ActivityID:      schedule.ActivityID,
			Start:           schedule.Start,
			DurationMinutes: schedule.DurationMinutes,
			RoomID:          schedule.RoomID,
			URL:             schedule.URL,
		})
	}
	return core
}

func fromCoreSchedules(activityID string, schedules []scheduling.Schedule) []Schedule {
	out := make([]Schedule, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, Schedule{
			ID:              schedule.ID,
			ActivityID:      activityID,
			Start:           schedule.Start,
			DurationMinutes: schedule.DurationMinutes,
			RoomID:          schedule.RoomID,
			URL:             schedule.URL,
		})
	}
	return out
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapActivityRepoError(err error) error {
	if err == nil {
		return nil
	}
	var roomErr *persistence.RoomConflictError
	if errors.As(err, &roomErr) {
		roomID := roomErr.RoomID
		return &ConflictError{Conflicts: []scheduling.Conflict{{
			Kind:           scheduling.ConflictKindRoom,
			ScheduleID:     roomErr.ScheduleID,
			WithScheduleID: roomErr.WithScheduleID,
			RoomID:         &roomID,
		}}}
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return ErrInvalidVacancyValue
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrNotFound
	}
	return err
}
