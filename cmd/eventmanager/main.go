package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/event-manager/internal/application"
	"github.com/example/event-manager/internal/config"
	httptransport "github.com/example/event-manager/internal/http"
	"github.com/example/event-manager/internal/logging"
	"github.com/example/event-manager/internal/persistence"
	"github.com/example/event-manager/internal/persistence/sqlite"
)

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, logLevel(cfg.LogLevel))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := uuid.NewString
	now := time.Now

	eventRepo := newEventRepositoryAdapter(sqlite.NewEventRepository(pool))
	activityRepo := newActivityRepositoryAdapter(sqlite.NewActivityRepository(pool))
	registrationRepo := newRegistrationRepositoryAdapter(sqlite.NewRegistrationRepository(pool))

	eventService := application.NewEventServiceWithLogger(eventRepo, idGenerator, now, logger)
	activityService := application.NewActivityServiceWithLogger(activityRepo, eventRepo, registrationRepo, idGenerator, now, logger)
	registrationService := application.NewRegistrationServiceWithLogger(registrationRepo, activityRepo, eventRepo, idGenerator, now, logger)

	eventHandler := httptransport.NewEventHandler(eventService, logger)
	activityHandler := httptransport.NewActivityHandler(activityService, logger)

	middleware := []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)}
	if cfg.RateLimitPerSecond > 0 {
		limiter := httptransport.NewRateLimiter(httptransport.RateLimiterConfig{
			RPS:   cfg.RateLimitPerSecond,
			Burst: cfg.RateLimitBurst,
		})
		middleware = append(middleware, limiter.Middleware())
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Events:        eventHandler,
		Activities:    activityHandler,
		Registrations: httptransport.NewRegistrationHandler(registrationService, logger),
		Program:       httptransport.NewProgramHandler(eventService, activityService, logger),
		Middleware:    middleware,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("event manager API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type eventRepositoryAdapter struct {
	repo persistence.EventRepository
}

func newEventRepositoryAdapter(repo persistence.EventRepository) *eventRepositoryAdapter {
	return &eventRepositoryAdapter{repo: repo}
}

func (a *eventRepositoryAdapter) CreateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.CreateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.Event{}, err
	}
	return a.GetEvent(ctx, event.ID)
}

func (a *eventRepositoryAdapter) GetEvent(ctx context.Context, id string) (application.Event, error) {
	stored, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored), nil
}

func (a *eventRepositoryAdapter) GetEventByEdition(ctx context.Context, eventCategoryID string, edition int) (application.Event, error) {
	stored, err := a.repo.GetEventByEdition(ctx, eventCategoryID, edition)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored), nil
}

func (a *eventRepositoryAdapter) UpdateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.UpdateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.Event{}, err
	}
	return a.GetEvent(ctx, event.ID)
}

func (a *eventRepositoryAdapter) DeleteEvent(ctx context.Context, id string) error {
	return a.repo.DeleteEvent(ctx, id)
}

func (a *eventRepositoryAdapter) ListEvents(ctx context.Context) ([]application.Event, error) {
	models, err := a.repo.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	events := make([]application.Event, 0, len(models))
	for _, model := range models {
		events = append(events, toApplicationEvent(model))
	}
	return events, nil
}

func (a *eventRepositoryAdapter) CountActivities(ctx context.Context, eventID string) (int, error) {
	return a.repo.CountActivities(ctx, eventID)
}

type activityRepositoryAdapter struct {
	repo persistence.ActivityRepository
}

func newActivityRepositoryAdapter(repo persistence.ActivityRepository) *activityRepositoryAdapter {
	return &activityRepositoryAdapter{repo: repo}
}

func (a *activityRepositoryAdapter) CreateActivity(ctx context.Context, activity application.Activity) (application.Activity, error) {
	if err := a.repo.CreateActivity(ctx, toPersistenceActivity(activity)); err != nil {
		return application.Activity{}, err
	}
	return a.GetActivity(ctx, activity.ID)
}

func (a *activityRepositoryAdapter) GetActivity(ctx context.Context, id string) (application.Activity, error) {
	stored, err := a.repo.GetActivity(ctx, id)
	if err != nil {
		return application.Activity{}, err
	}
	return toApplicationActivity(stored), nil
}

func (a *activityRepositoryAdapter) UpdateActivity(ctx context.Context, activity application.Activity, invalidateRegistrations bool) (application.Activity, error) {
	if err := a.repo.UpdateActivity(ctx, toPersistenceActivity(activity), invalidateRegistrations); err != nil {
		return application.Activity{}, err
	}
	return a.GetActivity(ctx, activity.ID)
}

func (a *activityRepositoryAdapter) DeleteActivity(ctx context.Context, id string) error {
	return a.repo.DeleteActivity(ctx, id)
}

func (a *activityRepositoryAdapter) ListActivitiesForEvent(ctx context.Context, eventID string) ([]application.Activity, error) {
	models, err := a.repo.ListActivitiesForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return toApplicationActivities(models), nil
}

func (a *activityRepositoryAdapter) ListActivitiesInCategory(ctx context.Context, eventID, activityCategoryID string) ([]application.Activity, error) {
	models, err := a.repo.ListActivitiesInCategory(ctx, eventID, activityCategoryID)
	if err != nil {
		return nil, err
	}
	return toApplicationActivities(models), nil
}

func (a *activityRepositoryAdapter) ListSchedulesInRoom(ctx context.Context, roomID string) ([]application.Schedule, error) {
	models, err := a.repo.ListSchedulesInRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	schedules := make([]application.Schedule, 0, len(models))
	for _, model := range models {
		schedules = append(schedules, toApplicationSchedule(model))
	}
	return schedules, nil
}

type registrationRepositoryAdapter struct {
	repo persistence.RegistrationRepository
}

func newRegistrationRepositoryAdapter(repo persistence.RegistrationRepository) *registrationRepositoryAdapter {
	return &registrationRepositoryAdapter{repo: repo}
}

func (a *registrationRepositoryAdapter) CreateRegistration(ctx context.Context, registration application.Registration) (application.Registration, error) {
	if err := a.repo.CreateRegistration(ctx, persistence.Registration(registration)); err != nil {
		return application.Registration{}, err
	}
	return registration, nil
}

func (a *registrationRepositoryAdapter) DeleteRegistration(ctx context.Context, activityID, userID string) error {
	return a.repo.DeleteRegistration(ctx, activityID, userID)
}

func (a *registrationRepositoryAdapter) ListRegistrationsForActivity(ctx context.Context, activityID string) ([]application.Registration, error) {
	models, err := a.repo.ListRegistrationsForActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	registrations := make([]application.Registration, 0, len(models))
	for _, model := range models {
		registrations = append(registrations, application.Registration(model))
	}
	return registrations, nil
}

func (a *registrationRepositoryAdapter) CountRegistrations(ctx context.Context, activityID string) (int, error) {
	return a.repo.CountRegistrations(ctx, activityID)
}

func toPersistenceEvent(event application.Event) persistence.Event {
	return persistence.Event{
		ID:                 event.ID,
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
		ResponsibleUserIDs: append([]string(nil), event.ResponsibleUserIDs...),
		CreatedAt:          event.CreatedAt,
		UpdatedAt:          event.UpdatedAt,
	}
}

func toApplicationEvent(model persistence.Event) application.Event {
	return application.Event{
		ID:                 model.ID,
		Edition:            model.Edition,
		Description:        model.Description,
		Area:               model.Area,
		StartDate:          model.StartDate,
		EndDate:            model.EndDate,
		RegistryStartDate:  model.RegistryStartDate,
		RegistryEndDate:    model.RegistryEndDate,
		StatusActive:       model.StatusActive,
		StatusVisible:      model.StatusVisible,
		EventCategoryID:    model.EventCategoryID,
		ResponsibleUserIDs: append([]string(nil), model.ResponsibleUserIDs...),
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

func toPersistenceActivity(activity application.Activity) persistence.Activity {
	schedules := make([]persistence.Schedule, 0, len(activity.Schedules))
	for _, schedule := range activity.Schedules {
		schedules = append(schedules, persistence.Schedule{
			ID:              schedule.ID,
			ActivityID:      schedule.ActivityID,
			Start:           schedule.Start,
			DurationMinutes: schedule.DurationMinutes,
			RoomID:          cloneString(schedule.RoomID),
			URL:             cloneString(schedule.URL),
		})
	}
	return persistence.Activity{
		ID:                          activity.ID,
		EventID:                     activity.EventID,
		Title:                       activity.Title,
		Description:                 activity.Description,
		Vacancy:                     activity.Vacancy,
		WorkloadMinutes:             activity.WorkloadMinutes,
		ActivityCategoryID:          activity.ActivityCategoryID,
		IndexInCategory:             activity.IndexInCategory,
		ResponsibleUserIDs:          append([]string(nil), activity.ResponsibleUserIDs...),
		TeachingUserIDs:             append([]string(nil), activity.TeachingUserIDs...),
		ReadyForCertificateEmission: activity.ReadyForCertificateEmission,
		Schedules:                   schedules,
		CreatedAt:                   activity.CreatedAt,
		UpdatedAt:                   activity.UpdatedAt,
	}
}

func toApplicationActivity(model persistence.Activity) application.Activity {
	schedules := make([]application.Schedule, 0, len(model.Schedules))
	for _, schedule := range model.Schedules {
		schedules = append(schedules, toApplicationSchedule(schedule))
	}
	return application.Activity{
		ID:                          model.ID,
		EventID:                     model.EventID,
		Title:                       model.Title,
		Description:                 model.Description,
		Vacancy:                     model.Vacancy,
		WorkloadMinutes:             model.WorkloadMinutes,
		ActivityCategoryID:          model.ActivityCategoryID,
		IndexInCategory:             model.IndexInCategory,
		ResponsibleUserIDs:          append([]string(nil), model.ResponsibleUserIDs...),
		TeachingUserIDs:             append([]string(nil), model.TeachingUserIDs...),
		ReadyForCertificateEmission: model.ReadyForCertificateEmission,
		Schedules:                   schedules,
		CreatedAt:                   model.CreatedAt,
		UpdatedAt:                   model.UpdatedAt,
	}
}

func toApplicationActivities(models []persistence.Activity) []application.Activity {
	if len(models) == 0 {
		return nil
	}
	activities := make([]application.Activity, 0, len(models))
	for _, model := range models {
		activities = append(activities, toApplicationActivity(model))
	}
	return activities
}

func toApplicationSchedule(model persistence.Schedule) application.Schedule {
	return application.Schedule{
		ID:              model.ID,
		ActivityID:      model.ActivityID,
		Start:           model.Start,
		DurationMinutes: model.DurationMinutes,
		RoomID:          cloneString(model.RoomID),
		URL:             cloneString(model.URL),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
