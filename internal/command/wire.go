package command

import (
	"fmt"
	"strconv"
)

// Wire command letters. A payload is the letter immediately followed by
// the numeric value, no separator, no unit suffix.
const (
	wireFood        = 'F'
	wireWater       = 'W'
	wireTemperature = 'T'
)

// EncodeWire renders a command as its hardware wire payload. The value
// passes through unmodified using the shortest exact decimal form.
func EncodeWire(kind Kind, value float64) (string, error) {
	var code byte
	switch kind {
	case KindDispenseFood:
		code = wireFood
	case KindDispenseWater:
		code = wireWater
	case KindSetTemperature:
		code = wireTemperature
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrValidation, kind)
	}
	return string(code) + strconv.FormatFloat(value, 'g', -1, 64), nil
}

// ParseWire decodes a hardware wire payload back into its command kind
// and value. EncodeWire and ParseWire form a stable bijection over the
// three defined kinds.
func ParseWire(payload string) (Kind, float64, error) {
	if len(payload) < 2 {
		return "", 0, fmt.Errorf("%w: %q too short", ErrBadWirePayload, payload)
	}

	var kind Kind
	switch payload[0] {
	case wireFood:
		kind = KindDispenseFood
	case wireWater:
		kind = KindDispenseWater
	case wireTemperature:
		kind = KindSetTemperature
	default:
		return "", 0, fmt.Errorf("%w: unknown command letter %q", ErrBadWirePayload, payload[0])
	}

	value, err := strconv.ParseFloat(payload[1:], 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q has no numeric value", ErrBadWirePayload, payload)
	}
	return kind, value, nil
}
