package schedule

import "errors"

// Domain errors for the schedule package.
var (
	// ErrNotFound is returned when a schedule ID does not exist.
	ErrNotFound = errors.New("schedule: not found")

	// ErrInvalidSchedule is returned when a schedule fails validation.
	ErrInvalidSchedule = errors.New("schedule: invalid")
)
