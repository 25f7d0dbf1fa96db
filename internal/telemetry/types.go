package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse errors.
var (
	// ErrBadPayload is returned for payloads that are not the
	// four-field numeric wire format.
	ErrBadPayload = errors.New("telemetry: bad payload")

	// ErrTestMessage is returned for payloads carrying the reserved
	// test prefix; callers discard these without processing.
	ErrTestMessage = errors.New("telemetry: test message")
)

// testPrefix marks payloads injected by broker connectivity checks.
const testPrefix = "test"

// Reading is one telemetry report from a device.
type Reading struct {
	DeviceID    string    `json:"device_id"`
	FoodLevel   float64   `json:"food_level"`
	WaterLevel  float64   `json:"water_level"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	ReceivedAt  time.Time `json:"received_at"`
}

// ParseReading decodes the wire payload for a device.
func ParseReading(deviceID string, payload []byte, receivedAt time.Time) (Reading, error) {
	raw := strings.TrimSpace(string(payload))
	if strings.HasPrefix(raw, testPrefix) {
		return Reading{}, ErrTestMessage
	}

	fields := strings.Split(raw, ",")
	if len(fields) != 4 {
		return Reading{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrBadPayload, len(fields))
	}

	values := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Reading{}, fmt.Errorf("%w: field %d %q is not numeric", ErrBadPayload, i+1, f)
		}
		values[i] = v
	}

	return Reading{
		DeviceID:    deviceID,
		FoodLevel:   values[0],
		WaterLevel:  values[1],
		Temperature: values[2],
		Humidity:    values[3],
		ReceivedAt:  receivedAt,
	}, nil
}
