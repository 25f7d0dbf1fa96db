package actuator

import (
	"errors"
	"fmt"
)

// Domain errors for the actuator package.
var (
	// ErrNotFound is returned when an actuator ID is not registered.
	ErrNotFound = errors.New("actuator: not found")

	// ErrExists is returned when registering a duplicate actuator ID.
	ErrExists = errors.New("actuator: already registered")

	// ErrEmergencyStop is returned when activation is attempted while
	// the controller-wide emergency stop is active.
	ErrEmergencyStop = errors.New("actuator: emergency stop active")

	// ErrInvalidKind is returned when constructing an actuator from a
	// device type that does not accept commands.
	ErrInvalidKind = errors.New("actuator: invalid kind")
)

// SafetyError is returned when the safety gate rejects an activation.
// Reason carries the specific failing check's message and is surfaced
// verbatim to callers.
type SafetyError struct {
	Reason string
}

func (e *SafetyError) Error() string {
	return fmt.Sprintf("actuator: activation rejected: %s", e.Reason)
}

// IsSafetyRejected reports whether err is a safety-gate rejection.
func IsSafetyRejected(err error) bool {
	var se *SafetyError
	return errors.As(err, &se)
}
