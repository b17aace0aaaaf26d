package scheduling

import (
	"testing"
	"time"
)

func strPtr(value string) *string {
	return &value
}

func testSchedule(id string, start time.Time, minutes int, roomID, url *string) Schedule {
	return Schedule{
		ID:              id,
		ActivityID:      "activity-1",
		Start:           start,
		DurationMinutes: minutes,
		RoomID:          roomID,
		URL:             url,
	}
}

func TestFindConflicts(t *testing.T) {
	base := time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)

	t.Run("schedule without room or url is structurally invalid", func(t *testing.T) {
		conflicts := FindConflicts([]Schedule{testSchedule("s1", base, 60, nil, nil)}, nil)

		if len(conflicts) != 1 {
			t.Fatalf("expected one conflict, got %v", conflicts)
		}
		if conflicts[0].Kind != ConflictKindInvalidSchedule {
			t.Fatalf("expected invalid schedule, got %v", conflicts[0].Kind)
		}
		if conflicts[0].ScheduleID != "s1" {
			t.Fatalf("unexpected schedule id %q", conflicts[0].ScheduleID)
		}
	})

	t.Run("structural check runs before overlap checks", func(t *testing.T) {
		candidates := []Schedule{
			testSchedule("s1", base, 60, nil, nil),
			testSchedule("s2", base, 60, strPtr("room-a"), nil),
			testSchedule("s3", base, 60, strPtr("room-a"), nil),
		}

		conflicts := FindConflicts(candidates, nil)

		for _, conflict := range conflicts {
			if conflict.Kind != ConflictKindInvalidSchedule {
				t.Fatalf("expected only structural conflicts, got %v", conflict.Kind)
			}
		}
	})

	t.Run("overlapping candidates conflict with each other", func(t *testing.T) {
		candidates := []Schedule{
			testSchedule("s1", base, 90, strPtr("room-a"), nil),
			testSchedule("s2", base.Add(60*time.Minute), 60, nil, strPtr("https://meet.example.com/x")),
		}

		conflicts := FindConflicts(candidates, nil)

		if len(conflicts) != 1 || conflicts[0].Kind != ConflictKindSelfOverlap {
			t.Fatalf("expected one self overlap, got %v", conflicts)
		}
		if conflicts[0].ScheduleID != "s1" || conflicts[0].WithScheduleID != "s2" {
			t.Fatalf("unexpected pair %q/%q", conflicts[0].ScheduleID, conflicts[0].WithScheduleID)
		}
	})

	t.Run("back to back candidates do not conflict", func(t *testing.T) {
		candidates := []Schedule{
			testSchedule("s1", base, 60, strPtr("room-a"), nil),
			testSchedule("s2", base.Add(60*time.Minute), 60, strPtr("room-a"), nil),
		}

		if conflicts := FindConflicts(candidates, nil); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})

	t.Run("same room overlap across the system conflicts", func(t *testing.T) {
		existing := []Schedule{
			{ID: "other", ActivityID: "activity-2", Start: base.Add(30 * time.Minute), DurationMinutes: 60, RoomID: strPtr("room-a")},
		}

		conflicts := FindConflicts([]Schedule{testSchedule("s1", base, 60, strPtr("room-a"), nil)}, existing)

		if len(conflicts) != 1 || conflicts[0].Kind != ConflictKindRoom {
			t.Fatalf("expected one room conflict, got %v", conflicts)
		}
		if conflicts[0].WithScheduleID != "other" {
			t.Fatalf("unexpected counterpart %q", conflicts[0].WithScheduleID)
		}
		if conflicts[0].RoomID == nil || *conflicts[0].RoomID != "room-a" {
			t.Fatalf("expected room-a, got %v", conflicts[0].RoomID)
		}
	})

	t.Run("different rooms never conflict", func(t *testing.T) {
		existing := []Schedule{
			{ID: "other", ActivityID: "activity-2", Start: base, DurationMinutes: 60, RoomID: strPtr("room-b")},
		}

		if conflicts := FindConflicts([]Schedule{testSchedule("s1", base, 60, strPtr("room-a"), nil)}, existing); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})

	t.Run("back to back room usage does not conflict", func(t *testing.T) {
		existing := []Schedule{
			{ID: "other", ActivityID: "activity-2", Start: base.Add(60 * time.Minute), DurationMinutes: 60, RoomID: strPtr("room-a")},
		}

		if conflicts := FindConflicts([]Schedule{testSchedule("s1", base, 60, strPtr("room-a"), nil)}, existing); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})

	t.Run("url only schedules never contend for rooms", func(t *testing.T) {
		existing := []Schedule{
			{ID: "other", ActivityID: "activity-2", Start: base, DurationMinutes: 60, URL: strPtr("https://meet.example.com/a")},
		}

		candidate := testSchedule("s1", base, 60, nil, strPtr("https://meet.example.com/b"))
		if conflicts := FindConflicts([]Schedule{candidate}, existing); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})

	t.Run("candidate is not compared against its own persisted row", func(t *testing.T) {
		existing := []Schedule{
			{ID: "s1", ActivityID: "activity-1", Start: base, DurationMinutes: 60, RoomID: strPtr("room-a")},
		}

		candidate := testSchedule("s1", base.Add(10*time.Minute), 60, strPtr("room-a"), nil)
		if conflicts := FindConflicts([]Schedule{candidate}, existing); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %v", conflicts)
		}
	})
}

func TestScheduleEnd(t *testing.T) {
	start := time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)
	schedule := Schedule{Start: start, DurationMinutes: 90}

	if got := schedule.End(); !got.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("End = %v", got)
	}
}
