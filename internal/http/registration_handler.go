package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/event-manager/internal/application"
)

type registrationService interface {
	Register(ctx context.Context, params application.RegisterParams) (application.Registration, error)
	Unregister(ctx context.Context, activityID, userID string) (int64, error)
	ListForActivity(ctx context.Context, activityID string) ([]application.Registration, error)
}

// RegistrationHandler exposes enrollment endpoints nested under activities.
type RegistrationHandler struct {
	service   registrationService
	responder responder
	logger    *slog.Logger
}

// NewRegistrationHandler builds a registration handler with its responder.
func NewRegistrationHandler(service registrationService, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	activityID, ok := ActivityIDFromContext(r.Context())
	if !ok || strings.TrimSpace(activityID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidActivityID)
		return
	}

	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	registration, err := h.service.Register(r.Context(), application.RegisterParams{
		ActivityID: activityID,
		UserID:     strings.TrimSpace(req.UserID),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, registrationToDTO(registration))
}

func (h *RegistrationHandler) Unregister(w http.ResponseWriter, r *http.Request, userID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	activityID, ok := ActivityIDFromContext(r.Context())
	if !ok || strings.TrimSpace(activityID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidActivityID)
		return
	}
	if strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	deleted, err := h.service.Unregister(r.Context(), activityID, userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, deleteResponse{Deleted: deleted})
}

func (h *RegistrationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	activityID, ok := ActivityIDFromContext(r.Context())
	if !ok || strings.TrimSpace(activityID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidActivityID)
		return
	}

	registrations, err := h.service.ListForActivity(r.Context(), activityID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]registrationDTO, 0, len(registrations))
	for _, registration := range registrations {
		dtos = append(dtos, registrationToDTO(registration))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, registrationListResponse{Registrations: dtos})
}

type registrationRequest struct {
	UserID string `json:"user_id"`
}

type registrationDTO struct {
	ID           string `json:"id"`
	ActivityID   string `json:"activity_id"`
	UserID       string `json:"user_id"`
	RegisteredAt string `json:"registered_at"`
}

type registrationListResponse struct {
	Registrations []registrationDTO `json:"registrations"`
}

func registrationToDTO(registration application.Registration) registrationDTO {
	return registrationDTO{
		ID:           registration.ID,
		ActivityID:   registration.ActivityID,
		UserID:       registration.UserID,
		RegisteredAt: registration.RegisteredAt.UTC().Format(time.RFC3339),
	}
}
