package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/example/event-manager/internal/application"
)

func TestLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level string
		want  slog.Level
	}{
		{name: "debug", level: "debug", want: slog.LevelDebug},
		{name: "info", level: "info", want: slog.LevelInfo},
		{name: "warn", level: "warn", want: slog.LevelWarn},
		{name: "error", level: "error", want: slog.LevelError},
		{name: "unknown falls back to info", level: "verbose", want: slog.LevelInfo},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := logLevel(tc.level); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestActivityModelConversionRoundTrip(t *testing.T) {
	t.Parallel()

	roomID := "room-a"
	url := "https://example.com/live"
	original := application.Activity{
		ID:                 "activity-1",
		EventID:            "event-1",
		Title:              "Opening Talk",
		Description:        "Kickoff session",
		Vacancy:            50,
		WorkloadMinutes:    90,
		ActivityCategoryID: "cat-talks",
		IndexInCategory:    3,
		ResponsibleUserIDs: []string{"user-1", "user-2"},
		TeachingUserIDs:    []string{"user-3"},
		Schedules: []application.Schedule{
			{
				ID:              "sched-1",
				ActivityID:      "activity-1",
				Start:           time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC),
				DurationMinutes: 60,
				RoomID:          &roomID,
			},
			{
				ID:              "sched-2",
				ActivityID:      "activity-1",
				Start:           time.Date(2026, 7, 2, 9, 0, 0, 0, time.UTC),
				DurationMinutes: 30,
				URL:             &url,
			},
		},
		CreatedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC),
	}

	converted := toApplicationActivity(toPersistenceActivity(original))

	if converted.ID != original.ID || converted.IndexInCategory != original.IndexInCategory {
		t.Fatalf("expected identity fields to survive, got %+v", converted)
	}
	if len(converted.Schedules) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(converted.Schedules))
	}
	if converted.Schedules[0].RoomID == nil || *converted.Schedules[0].RoomID != roomID {
		t.Fatalf("expected room to survive conversion, got %+v", converted.Schedules[0])
	}
	if converted.Schedules[1].URL == nil || *converted.Schedules[1].URL != url {
		t.Fatalf("expected url to survive conversion, got %+v", converted.Schedules[1])
	}

	// Pointers must be cloned, not shared with the source model.
	if converted.Schedules[0].RoomID == original.Schedules[0].RoomID {
		t.Fatal("expected room pointer to be cloned")
	}
}
