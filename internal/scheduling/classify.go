package scheduling

import "time"

// TemporalState classifies an entity's window relative to a reference instant.
type TemporalState string

const (
	// StateFuture indicates the window has not started yet.
	StateFuture TemporalState = "future"
	// StateOngoing indicates the reference instant falls inside the window.
	StateOngoing TemporalState = "ongoing"
	// StatePast indicates the window has already ended.
	StatePast TemporalState = "past"
)

// Classify resolves the temporal state of the [start, end] window at now.
// The end bound is inclusive: a window ending exactly at now is still ongoing.
func Classify(start, end, now time.Time) TemporalState {
	if end.Before(now) {
		return StatePast
	}
	if start.After(now) {
		return StateFuture
	}
	return StateOngoing
}

// DayStart truncates t to midnight of its calendar day.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayEnd expands a date-granularity bound to the last represented instant of
// its calendar day, 23:59:59.999.
func DayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
