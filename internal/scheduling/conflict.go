package scheduling

import "time"

// Schedule is one concrete occurrence of an activity: a start instant, a
// duration, and either a physical room or a remote URL (or both).
type Schedule struct {
	ID              string
	ActivityID      string
	Start           time.Time
	DurationMinutes int
	RoomID          *string
	URL             *string
}

// End derives the exclusive end instant of the schedule.
func (s Schedule) End() time.Time {
	return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// HasVenue reports whether attendees would have either a place or a link.
func (s Schedule) HasVenue() bool {
	return (s.RoomID != nil && *s.RoomID != "") || (s.URL != nil && *s.URL != "")
}

// ConflictKind describes the category of a detected schedule conflict.
type ConflictKind string

const (
	// ConflictKindInvalidSchedule indicates a schedule carrying neither a room
	// nor a URL.
	ConflictKindInvalidSchedule ConflictKind = "invalid_schedule"
	// ConflictKindSelfOverlap indicates two schedules of the same candidate set
	// overlapping in time.
	ConflictKindSelfOverlap ConflictKind = "self_overlap"
	// ConflictKindRoom indicates a room double-booked across the system.
	ConflictKindRoom ConflictKind = "room"
)

// Conflict details one violation found by FindConflicts.
type Conflict struct {
	Kind           ConflictKind
	ScheduleID     string
	WithScheduleID string
	RoomID         *string
}

// Overlaps reports whether the half-open intervals [a.Start, a.End()) and
// [b.Start, b.End()) intersect. Back-to-back schedules do not overlap.
func Overlaps(a, b Schedule) bool {
	return a.Start.Before(b.End()) && b.Start.Before(a.End())
}

// FindConflicts validates a candidate schedule set against itself and against
// the system-wide universe of existing schedules.
//
// Checks run in order: structural validity, pairwise self-overlap, then room
// overlap against existing schedules sharing the same room. The universe must
// not contain the candidate activity's own persisted schedules; on edits the
// caller excludes them since they are being replaced. All violations are
// collected in deterministic candidate order so callers can act on the first.
func FindConflicts(candidates []Schedule, existing []Schedule) []Conflict {
	var conflicts []Conflict

	for _, candidate := range candidates {
		if !candidate.HasVenue() {
			conflicts = append(conflicts, Conflict{
				Kind:       ConflictKindInvalidSchedule,
				ScheduleID: candidate.ID,
			})
		}
	}
	if len(conflicts) > 0 {
		return conflicts
	}

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if Overlaps(candidates[i], candidates[j]) {
				conflicts = append(conflicts, Conflict{
					Kind:           ConflictKindSelfOverlap,
					ScheduleID:     candidates[i].ID,
					WithScheduleID: candidates[j].ID,
				})
			}
		}
	}
	if len(conflicts) > 0 {
		return conflicts
	}

	for _, candidate := range candidates {
		if candidate.RoomID == nil || *candidate.RoomID == "" {
			continue
		}
		for _, other := range existing {
			if other.ID != "" && other.ID == candidate.ID {
				continue
			}
			if other.RoomID == nil || *other.RoomID != *candidate.RoomID {
				continue
			}
			if Overlaps(candidate, other) {
				roomID := *candidate.RoomID
				conflicts = append(conflicts, Conflict{
					Kind:           ConflictKindRoom,
					ScheduleID:     candidate.ID,
					WithScheduleID: other.ID,
					RoomID:         &roomID,
				})
			}
		}
	}

	return conflicts
}
