package scheduling

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	start := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 12, 18, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want TemporalState
	}{
		{"before the window", start.Add(-time.Minute), StateFuture},
		{"at the start bound", start, StateOngoing},
		{"inside the window", start.Add(24 * time.Hour), StateOngoing},
		{"at the end bound", end, StateOngoing},
		{"after the window", end.Add(time.Millisecond), StatePast},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(start, end, tc.now); got != tc.want {
				t.Fatalf("Classify(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestClassifyReturnsExactlyOneState(t *testing.T) {
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for offset := -48; offset <= 48; offset += 3 {
		now := base.Add(time.Duration(offset) * time.Hour)
		state := Classify(base, base.Add(24*time.Hour), now)
		switch state {
		case StateFuture, StateOngoing, StatePast:
		default:
			t.Fatalf("unexpected state %q at offset %d", state, offset)
		}
	}
}

func TestDayBounds(t *testing.T) {
	instant := time.Date(2026, time.June, 15, 13, 45, 12, 999, time.UTC)

	if got := DayStart(instant); !got.Equal(time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("DayStart = %v", got)
	}

	wantEnd := time.Date(2026, time.June, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	if got := DayEnd(instant); !got.Equal(wantEnd) {
		t.Fatalf("DayEnd = %v, want %v", got, wantEnd)
	}
}
