package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/event-manager/internal/application"
)

var (
	errBadRequestBody    = errors.New("invalid request body")
	errInvalidEventID    = errors.New("invalid event id")
	errInvalidActivityID = errors.New("invalid activity id")
	errInvalidUserID     = errors.New("invalid user id")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates application errors to HTTP statuses. State
// guard violations and scheduling conflicts surface as 409, value errors as
// 422, everything unexpected as 500.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "validation failed",
			Errors:  vErr.FieldErrors,
		})
		return
	}

	var cErr *application.ConflictError
	if errors.As(err, &cErr) {
		conflicts := make([]conflictDTO, 0, len(cErr.Conflicts))
		for _, conflict := range cErr.Conflicts {
			dto := conflictDTO{
				Kind:           string(conflict.Kind),
				ScheduleID:     conflict.ScheduleID,
				WithScheduleID: conflict.WithScheduleID,
			}
			if conflict.RoomID != nil {
				dto.RoomID = *conflict.RoomID
			}
			conflicts = append(conflicts, dto)
		}
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SCHEDULE_CONFLICT",
			Message:   cErr.Error(),
			Conflicts: conflicts,
		})
		return
	}

	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "resource not found"})
	case errors.Is(err, application.ErrConflictingEdition),
		errors.Is(err, application.ErrAlreadyExists),
		errors.Is(err, application.ErrAlreadyRegistered):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: err.Error()})
	case errors.Is(err, application.ErrEventChangeRestriction),
		errors.Is(err, application.ErrEventDeleteRestriction),
		errors.Is(err, application.ErrActivityDeleteIsHappening),
		errors.Is(err, application.ErrActivityDeleteHasHappened),
		errors.Is(err, application.ErrActivityDeleteHasRegistry),
		errors.Is(err, application.ErrRegistrationClosed),
		errors.Is(err, application.ErrActivityFull):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: err.Error()})
	case errors.Is(err, application.ErrEndDateBeforeStartDate),
		errors.Is(err, application.ErrRegistryEndBeforeStartDate),
		errors.Is(err, application.ErrInvalidVacancyValue),
		errors.Is(err, application.ErrInvalidWorkloadMinutesValue),
		errors.Is(err, application.ErrResponsibleUsersUndefined),
		errors.Is(err, application.ErrSchedulesUndefined):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{Message: err.Error()})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflicts []conflictDTO     `json:"conflicts,omitempty"`
}

type conflictDTO struct {
	Kind           string `json:"kind"`
	ScheduleID     string `json:"schedule_id"`
	WithScheduleID string `json:"with_schedule_id,omitempty"`
	RoomID         string `json:"room_id,omitempty"`
}
