package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	ical "github.com/arran4/golang-ical"
)

// ProgramHandler renders an event's programme as an iCalendar feed, one
// VEVENT per schedule.
type ProgramHandler struct {
	events     eventService
	activities activityService
	responder  responder
	logger     *slog.Logger
}

// NewProgramHandler builds the ICS export handler.
func NewProgramHandler(events eventService, activities activityService, logger *slog.Logger) *ProgramHandler {
	return &ProgramHandler{
		events:     events,
		activities: activities,
		responder:  newResponder(logger),
		logger:     defaultLogger(logger),
	}
}

// Export writes the programme of the event identified in the context as
// text/calendar.
func (h *ProgramHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.events == nil || h.activities == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	event, err := h.events.GetEvent(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	activities, err := h.activities.ListActivitiesForEvent(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//event-manager//program//EN")
	cal.SetName(fmt.Sprintf("%s (edition %d)", event.Description, event.Edition))

	for _, activity := range activities {
		for _, schedule := range activity.Schedules {
			entry := cal.AddEvent(schedule.ID)
			entry.SetDtStampTime(activity.UpdatedAt.UTC())
			entry.SetStartAt(schedule.Start.UTC())
			entry.SetEndAt(schedule.End().UTC())
			entry.SetSummary(activity.Title)
			if activity.Description != "" {
				entry.SetDescription(activity.Description)
			}
			if schedule.RoomID != nil && *schedule.RoomID != "" {
				entry.SetLocation(*schedule.RoomID)
			}
			if schedule.URL != nil && *schedule.URL != "" {
				entry.SetURL(*schedule.URL)
			}
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "program-"+event.ID+".ics"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(cal.Serialize())); err != nil {
		handlerLogger(r.Context(), h.logger, "ProgramHandler", "Export").
			ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}
