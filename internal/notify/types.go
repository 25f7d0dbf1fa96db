package notify

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a notification ID does not exist.
var ErrNotFound = errors.New("notify: not found")

// Level grades notification severity.
type Level string

// Notification levels.
const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Kind categorises what raised the notification.
type Kind string

// Notification kinds.
const (
	KindLowFood         Kind = "low_food"
	KindLowWater        Kind = "low_water"
	KindTemperatureBand Kind = "temperature_out_of_range"
	KindHumidityBand    Kind = "humidity_out_of_range"
	KindDeviceOffline   Kind = "device_offline"
	KindDeviceOnline    Kind = "device_online"
	KindActuatorFault   Kind = "actuator_fault"
	KindEmergencyStop   Kind = "emergency_stop"
)

// Notification is a single alert raised by the core.
type Notification struct {
	ID           string    `json:"id"`
	Level        Level     `json:"level"`
	Kind         Kind      `json:"kind"`
	DeviceID     string    `json:"device_id,omitempty"`
	Message      string    `json:"message"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"created_at"`
}

// New builds a notification with a fresh ID and timestamp.
func New(level Level, kind Kind, deviceID, message string) Notification {
	return Notification{
		ID:        "ntf-" + uuid.NewString()[:8],
		Level:     level,
		Kind:      kind,
		DeviceID:  deviceID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}
