package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/event-manager/internal/application"
	"github.com/example/event-manager/internal/scheduling"
)

type activityService interface {
	CreateActivity(ctx context.Context, params application.CreateActivityParams) (application.Activity, error)
	UpdateActivity(ctx context.Context, params application.UpdateActivityParams) (application.Activity, scheduling.ReconcilePlan, error)
	DeleteActivity(ctx context.Context, activityID string) (int64, error)
	GetActivity(ctx context.Context, activityID string) (application.Activity, error)
	ListActivitiesForEvent(ctx context.Context, eventID string) ([]application.Activity, error)
}

// ActivityHandler exposes activity endpoints nested under events.
type ActivityHandler struct {
	service   activityService
	responder responder
	logger    *slog.Logger
}

// NewActivityHandler builds an activity handler with its responder.
func NewActivityHandler(service activityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput(eventID)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	activity, err := h.service.CreateActivity(r.Context(), application.CreateActivityParams{Input: input})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, activityToDTO(activity, nil))
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	activityID, ok := ActivityIDFromContext(r.Context())
	if !ok || strings.TrimSpace(activityID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidActivityID)
		return
	}

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput("")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	activity, plan, err := h.service.UpdateActivity(r.Context(), application.UpdateActivityParams{
		ActivityID: activityID,
		Input:      input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, activityToDTO(activity, &plan))
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	activityID, ok := ActivityIDFromContext(r.Context())
	if !ok || strings.TrimSpace(activityID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidActivityID)
		return
	}

	deleted, err := h.service.DeleteActivity(r.Context(), activityID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, deleteResponse{Deleted: deleted})
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	activityID, ok := ActivityIDFromContext(r.Context())
	if !ok || strings.TrimSpace(activityID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidActivityID)
		return
	}

	activity, err := h.service.GetActivity(r.Context(), activityID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, activityToDTO(activity, nil))
}

func (h *ActivityHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	activities, err := h.service.ListActivitiesForEvent(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]activityDTO, 0, len(activities))
	for _, activity := range activities {
		dtos = append(dtos, activityToDTO(activity, nil))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, activityListResponse{Activities: dtos})
}

type scheduleRequest struct {
	ID              string  `json:"id,omitempty"`
	Start           string  `json:"start"`
	DurationMinutes int     `json:"duration_minutes"`
	RoomID          *string `json:"room_id,omitempty"`
	URL             *string `json:"url,omitempty"`
}

type activityRequest struct {
	Title                       string            `json:"title"`
	Description                 string            `json:"description"`
	Vacancy                     int               `json:"vacancy"`
	WorkloadMinutes             int               `json:"workload_minutes"`
	ActivityCategoryID          string            `json:"activity_category_id"`
	ResponsibleUserIDs          []string          `json:"responsible_user_ids"`
	TeachingUserIDs             []string          `json:"teaching_user_ids"`
	ReadyForCertificateEmission bool              `json:"ready_for_certificate_emission"`
	Schedules                   []scheduleRequest `json:"schedules"`
}

func (req activityRequest) toInput(eventID string) (application.ActivityInput, error) {
	input := application.ActivityInput{
		EventID:                     eventID,
		Title:                       req.Title,
		Description:                 req.Description,
		Vacancy:                     req.Vacancy,
		WorkloadMinutes:             req.WorkloadMinutes,
		ActivityCategoryID:          req.ActivityCategoryID,
		ResponsibleUserIDs:          req.ResponsibleUserIDs,
		TeachingUserIDs:             req.TeachingUserIDs,
		ReadyForCertificateEmission: req.ReadyForCertificateEmission,
	}

	for _, schedule := range req.Schedules {
		start, err := parseTimestamp(schedule.Start)
		if err != nil {
			return application.ActivityInput{}, err
		}
		input.Schedules = append(input.Schedules, application.ScheduleInput{
			ID:              schedule.ID,
			Start:           start,
			DurationMinutes: schedule.DurationMinutes,
			RoomID:          schedule.RoomID,
			URL:             schedule.URL,
		})
	}
	return input, nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errBadRequestBody
	}
	return t, nil
}

type scheduleDTO struct {
	ID              string  `json:"id"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	DurationMinutes int     `json:"duration_minutes"`
	RoomID          *string `json:"room_id,omitempty"`
	URL             *string `json:"url,omitempty"`
}

type activityDTO struct {
	ID                          string        `json:"id"`
	EventID                     string        `json:"event_id"`
	Title                       string        `json:"title"`
	Description                 string        `json:"description"`
	Vacancy                     int           `json:"vacancy"`
	WorkloadMinutes             int           `json:"workload_minutes"`
	ActivityCategoryID          string        `json:"activity_category_id"`
	IndexInCategory             int           `json:"index_in_category"`
	ResponsibleUserIDs          []string      `json:"responsible_user_ids"`
	TeachingUserIDs             []string      `json:"teaching_user_ids,omitempty"`
	ReadyForCertificateEmission bool          `json:"ready_for_certificate_emission"`
	Schedules                   []scheduleDTO `json:"schedules"`
	RegistrationsInvalidated    bool          `json:"registrations_invalidated,omitempty"`
	CreatedAt                   string        `json:"created_at"`
	UpdatedAt                   string        `json:"updated_at"`
}

type activityListResponse struct {
	Activities []activityDTO `json:"activities"`
}

func activityToDTO(activity application.Activity, plan *scheduling.ReconcilePlan) activityDTO {
	schedules := make([]scheduleDTO, 0, len(activity.Schedules))
	for _, schedule := range activity.Schedules {
		schedules = append(schedules, scheduleDTO{
			ID:              schedule.ID,
			Start:           schedule.Start.UTC().Format(time.RFC3339),
			End:             schedule.End().UTC().Format(time.RFC3339),
			DurationMinutes: schedule.DurationMinutes,
			RoomID:          schedule.RoomID,
			URL:             schedule.URL,
		})
	}

	dto := activityDTO{
		ID:                          activity.ID,
		EventID:                     activity.EventID,
		Title:                       activity.Title,
		Description:                 activity.Description,
		Vacancy:                     activity.Vacancy,
		WorkloadMinutes:             activity.WorkloadMinutes,
		ActivityCategoryID:          activity.ActivityCategoryID,
		IndexInCategory:             activity.IndexInCategory,
		ResponsibleUserIDs:          activity.ResponsibleUserIDs,
		TeachingUserIDs:             activity.TeachingUserIDs,
		ReadyForCertificateEmission: activity.ReadyForCertificateEmission,
		Schedules:                   schedules,
		CreatedAt:                   activity.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:                   activity.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if plan != nil {
		dto.RegistrationsInvalidated = plan.TimingChanged
	}
	return dto
}
