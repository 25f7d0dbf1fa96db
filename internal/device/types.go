package device

import (
	"fmt"
	"strings"
	"time"
)

// Type identifies what a device is and how the system addresses it.
type Type string

// Device types known to PetCare Core.
const (
	// TypeSensorNode is a habitat monitoring node reporting telemetry.
	TypeSensorNode Type = "sensor_node"

	// TypeFoodDispenser dispenses dry food by weight.
	TypeFoodDispenser Type = "food_dispenser"

	// TypeWaterDispenser dispenses water by volume.
	TypeWaterDispenser Type = "water_dispenser"

	// TypeFan is a habitat ventilation fan.
	TypeFan Type = "fan"

	// TypeHeater is a habitat heating element.
	TypeHeater Type = "heater"

	// TypeHumidifier raises habitat humidity.
	TypeHumidifier Type = "humidifier"

	// TypeDehumidifier lowers habitat humidity.
	TypeDehumidifier Type = "dehumidifier"
)

// validTypes is the set of recognised device types.
var validTypes = map[Type]bool{
	TypeSensorNode:     true,
	TypeFoodDispenser:  true,
	TypeWaterDispenser: true,
	TypeFan:            true,
	TypeHeater:         true,
	TypeHumidifier:     true,
	TypeDehumidifier:   true,
}

// Valid reports whether the type is recognised.
func (t Type) Valid() bool {
	return validTypes[t]
}

// IsActuator reports whether devices of this type accept commands.
func (t Type) IsActuator() bool {
	return t.Valid() && t != TypeSensorNode
}

// Device is an MQTT-addressable endpoint at a site.
type Device struct {
	// ID uniquely identifies the device. It doubles as the final
	// segment of the device's MQTT topics.
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// Type identifies the device class.
	Type Type `json:"type"`

	// Location is a free-form habitat/enclosure label.
	Location string `json:"location"`

	// Online reflects the last known connectivity state. Telemetry
	// ingest sets it; the dispatcher refuses commands while false.
	Online bool `json:"online"`

	// LastSeen is when the device last reported, nil if never.
	LastSeen *time.Time `json:"last_seen,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the device for structural errors.
//
// Returns:
//   - error: wrapping ErrInvalidDevice or ErrInvalidDeviceType, or nil
func (d *Device) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDevice)
	}
	if strings.ContainsAny(d.ID, "/+#") {
		return fmt.Errorf("%w: id must not contain MQTT topic characters", ErrInvalidDevice)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDevice)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceType, d.Type)
	}
	return nil
}

// DeepCopy returns an independent copy of the device.
// Registry reads return copies so callers cannot mutate cached state.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	out := *d
	if d.LastSeen != nil {
		ls := *d.LastSeen
		out.LastSeen = &ls
	}
	return &out
}
