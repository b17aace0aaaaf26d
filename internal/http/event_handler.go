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

// dateFormat is the wire format of date-granular fields.
const dateFormat = "2006-01-02"

type eventService interface {
	CreateEvent(ctx context.Context, params application.CreateEventParams) (application.Event, error)
	UpdateEvent(ctx context.Context, params application.UpdateEventParams) (application.Event, error)
	DeleteEvent(ctx context.Context, eventID string) (int64, error)
	GetEvent(ctx context.Context, eventID string) (application.Event, error)
	ListEvents(ctx context.Context) ([]application.Event, error)
	TemporalState(event application.Event) scheduling.TemporalState
}

// EventHandler exposes event CRUD endpoints.
type EventHandler struct {
	service   eventService
	responder responder
	logger    *slog.Logger
}

// NewEventHandler builds an event handler with its responder.
func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	event, err := h.service.CreateEvent(r.Context(), application.CreateEventParams{Input: input})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, h.toDTO(event))
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	event, err := h.service.UpdateEvent(r.Context(), application.UpdateEventParams{EventID: eventID, Input: input})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.toDTO(event))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	deleted, err := h.service.DeleteEvent(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, deleteResponse{Deleted: deleted})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	event, err := h.service.GetEvent(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.toDTO(event))
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]eventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, h.toDTO(event))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventListResponse{Events: dtos})
}

func (h *EventHandler) toDTO(event application.Event) eventDTO {
	return eventDTO{
		ID:                 event.ID,
		Edition:            event.Edition,
		Description:        event.Description,
		Area:               event.Area,
		StartDate:          event.StartDate.Format(dateFormat),
		EndDate:            event.EndDate.Format(dateFormat),
		RegistryStartDate:  event.RegistryStartDate.Format(dateFormat),
		RegistryEndDate:    event.RegistryEndDate.Format(dateFormat),
		StatusActive:       event.StatusActive,
		StatusVisible:      event.StatusVisible,
		EventCategoryID:    event.EventCategoryID,
		ResponsibleUserIDs: event.ResponsibleUserIDs,
		TemporalState:      string(h.service.TemporalState(event)),
		CreatedAt:          event.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          event.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type eventRequest struct {
	Edition            int      `json:"edition"`
	Description        string   `json:"description"`
	Area               string   `json:"area"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	RegistryStartDate  string   `json:"registry_start_date"`
	RegistryEndDate    string   `json:"registry_end_date"`
	StatusActive       bool     `json:"status_active"`
	StatusVisible      bool     `json:"status_visible"`
	EventCategoryID    string   `json:"event_category_id"`
	ResponsibleUserIDs []string `json:"responsible_user_ids"`
}

func (req eventRequest) toInput() (application.EventInput, error) {
	input := application.EventInput{
		Edition:            req.Edition,
		Description:        req.Description,
		Area:               req.Area,
		StatusActive:       req.StatusActive,
		StatusVisible:      req.StatusVisible,
		EventCategoryID:    req.EventCategoryID,
		ResponsibleUserIDs: req.ResponsibleUserIDs,
	}

	var err error
	if input.StartDate, err = parseDate(req.StartDate); err != nil {
		return application.EventInput{}, err
	}
	if input.EndDate, err = parseDate(req.EndDate); err != nil {
		return application.EventInput{}, err
	}
	if input.RegistryStartDate, err = parseDate(req.RegistryStartDate); err != nil {
		return application.EventInput{}, err
	}
	if input.RegistryEndDate, err = parseDate(req.RegistryEndDate); err != nil {
		return application.EventInput{}, err
	}
	return input, nil
}

// parseDate accepts date-only values and full RFC3339 timestamps; empty
// values parse to the zero time so the service reports the missing field.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateFormat, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errBadRequestBody
	}
	return t, nil
}

type eventDTO struct {
	ID                 string   `json:"id"`
	Edition            int      `json:"edition"`
	Description        string   `json:"description"`
	Area               string   `json:"area"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	RegistryStartDate  string   `json:"registry_start_date"`
	RegistryEndDate    string   `json:"registry_end_date"`
	StatusActive       bool     `json:"status_active"`
	StatusVisible      bool     `json:"status_visible"`
	EventCategoryID    string   `json:"event_category_id"`
	ResponsibleUserIDs []string `json:"responsible_user_ids"`
	TemporalState      string   `json:"temporal_state"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

type eventListResponse struct {
	Events []eventDTO `json:"events"`
}

type deleteResponse struct {
	Deleted int64 `json:"deleted"`
}
