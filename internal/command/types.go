package command

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what a command asks the hardware to do.
type Kind string

// Command kinds.
const (
	KindDispenseFood   Kind = "dispense_food"
	KindDispenseWater  Kind = "dispense_water"
	KindSetTemperature Kind = "set_temperature"
)

// Valid reports whether the kind is one of the defined command kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDispenseFood, KindDispenseWater, KindSetTemperature:
		return true
	}
	return false
}

// Status is the command delivery lifecycle state.
type Status string

// Command statuses. Processing means the transport acknowledged the
// publish, not that the actuator confirmed physical completion.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Source records where a command originated.
type Source string

// Command sources.
const (
	SourceAPI      Source = "api"
	SourceSchedule Source = "schedule"
)

// Habitat temperature setpoint bounds in °C. Setpoints outside this
// range are rejected as validation errors before any state change.
const (
	minSetpointC = 0.0
	maxSetpointC = 40.0
)

// Command is a server-issued intent to change actuator state, tracked
// through its delivery lifecycle.
type Command struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Kind      Kind      `json:"kind"`
	Value     float64   `json:"value"`
	Payload   string    `json:"payload"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// newCommandID returns a short unique command identifier.
func newCommandID() string {
	return "cmd-" + uuid.NewString()[:8]
}

// validate checks kind and value range before any state change.
func validate(kind Kind, value float64) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrValidation, kind)
	}

	switch kind {
	case KindDispenseFood, KindDispenseWater:
		if value <= 0 {
			return fmt.Errorf("%w: dispense amount must be positive, got %v", ErrValidation, value)
		}
	case KindSetTemperature:
		if value < minSetpointC || value > maxSetpointC {
			return fmt.Errorf("%w: setpoint %v outside %v-%v degrees", ErrValidation, value, minSetpointC, maxSetpointC)
		}
	}
	return nil
}
