package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a check constraint rejects a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)

// RoomConflictError is returned when a schedule write would double-book a
// room. Repositories detect it inside the write transaction, so it holds even
// when two writers validated against the same pre-write occupancy.
type RoomConflictError struct {
	RoomID         string
	ScheduleID     string
	WithScheduleID string
}

func (e *RoomConflictError) Error() string {
	return fmt.Sprintf("persistence: room %s already booked: schedule %s overlaps %s",
		e.RoomID, e.ScheduleID, e.WithScheduleID)
}
