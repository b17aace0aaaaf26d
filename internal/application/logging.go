package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/event-manager/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel, validation, and conflict errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrConflictingEdition):
		return "conflicting_edition"
	case errors.Is(err, ErrEventChangeRestriction):
		return "change_restricted"
	case errors.Is(err, ErrEndDateBeforeStartDate), errors.Is(err, ErrRegistryEndBeforeStartDate):
		return "date_ordering"
	case errors.Is(err, ErrSchedulesUndefined), errors.Is(err, ErrResponsibleUsersUndefined):
		return "undefined_required_field"
	case errors.Is(err, ErrInvalidVacancyValue), errors.Is(err, ErrInvalidWorkloadMinutesValue):
		return "invalid_value"
	case errors.Is(err, ErrActivityDeleteIsHappening),
		errors.Is(err, ErrActivityDeleteHasHappened),
		errors.Is(err, ErrActivityDeleteHasRegistry),
		errors.Is(err, ErrEventDeleteRestriction):
		return "delete_restricted"
	case errors.Is(err, ErrRegistrationClosed):
		return "registration_closed"
	case errors.Is(err, ErrActivityFull):
		return "activity_full"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	}

	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return "schedule_conflict"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
