package actuator

import (
	"time"

	"github.com/petcarelabs/petcare-core/internal/device"
)

// State is the actuator lifecycle state.
type State string

// Actuator states.
const (
	StateIdle        State = "idle"
	StateActive      State = "active"
	StateError       State = "error"
	StateMaintenance State = "maintenance"
	StateDisabled    State = "disabled"
)

// Base safety limits shared by every actuator kind unless overridden.
const (
	baseMaxActivationTime    = 60.0 // seconds
	baseMinCooldownTime      = 10.0 // seconds
	baseMaxActivationsPerDay = 50
	dailyWindowSeconds       = 86400.0
)

// Tuning holds the per-kind safety and output constants.
//
// DispensingRate is units per second at full power (grams for food,
// millilitres for water); zero for environmental actuators.
// PowerConsumption is nominal watts at full power; zero for dispensers.
// MaxPower caps the commanded power level before clamping.
type Tuning struct {
	DispensingRate       float64
	MaxActivationTime    float64
	MinCooldownTime      float64
	MaxActivationsPerDay int
	PowerConsumption     float64
	MaxPower             float64
}

// tuningFor returns the safety tuning for a device kind.
// Unknown kinds fall back to the base limits with no output model.
func tuningFor(kind device.Type) Tuning {
	t := Tuning{
		MaxActivationTime:    baseMaxActivationTime,
		MinCooldownTime:      baseMinCooldownTime,
		MaxActivationsPerDay: baseMaxActivationsPerDay,
		MaxPower:             1.0,
	}

	switch kind {
	case device.TypeFoodDispenser:
		t.DispensingRate = 10.0
		t.MaxActivationTime = 10.0
	case device.TypeWaterDispenser:
		t.DispensingRate = 20.0
		t.MaxActivationTime = 15.0
	case device.TypeFan:
		t.MaxActivationTime = 3600.0
		t.PowerConsumption = 15.0
	case device.TypeHeater:
		t.MaxActivationTime = 1800.0
		t.PowerConsumption = 150.0
		t.MaxPower = 0.7
	case device.TypeHumidifier, device.TypeDehumidifier:
		t.MaxActivationTime = 3600.0
		t.PowerConsumption = 25.0
	}

	return t
}

// Status is a point-in-time snapshot of an actuator.
type Status struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Kind            device.Type `json:"kind"`
	State           State      `json:"state"`
	Connected       bool       `json:"connected"`
	CurrentPower    float64    `json:"current_power"`
	ActivationCount int        `json:"activation_count"`
	DailyCount      int        `json:"daily_count"`
	LastActivated   *time.Time `json:"last_activated,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
}

// Activation describes the outcome of a successful activation.
//
// Amount is the projected dispensed quantity for dispensers (grams or
// millilitres); EnergyWh the projected energy draw for environmental
// actuators. Exactly one of the two is non-zero for known kinds.
type Activation struct {
	Power    float64 `json:"power"`
	Duration float64 `json:"duration_s"`
	Amount   float64 `json:"amount,omitempty"`
	EnergyWh float64 `json:"energy_wh,omitempty"`
}
