package command

import "errors"

// Domain errors for the command package.
var (
	// ErrValidation is returned when the command kind or value is
	// rejected before any state change.
	ErrValidation = errors.New("command: validation failed")

	// ErrDeviceUnavailable is returned when the target device does not
	// exist or is offline. No command record is persisted in this case.
	ErrDeviceUnavailable = errors.New("command: device unavailable")

	// ErrDeliveryFailed is returned when the transport publish failed
	// or timed out. The command record is marked failed.
	ErrDeliveryFailed = errors.New("command: delivery failed")

	// ErrNotFound is returned when a command ID does not exist.
	ErrNotFound = errors.New("command: not found")

	// ErrBadWirePayload is returned when a wire payload cannot be
	// decoded back into a command kind and value.
	ErrBadWirePayload = errors.New("command: bad wire payload")
)
