package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/petcarelabs/petcare-core/internal/actuator"
	"github.com/petcarelabs/petcare-core/internal/command"
	"github.com/petcarelabs/petcare-core/internal/device"
	"github.com/petcarelabs/petcare-core/internal/notify"
	"github.com/petcarelabs/petcare-core/internal/schedule"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeSafetyRejected = "safety_rejected"
	ErrCodeUnavailable    = "device_unavailable"
	ErrCodeDelivery       = "delivery_failed"
	ErrCodeEmergencyStop  = "emergency_stop_active"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps a domain error to its HTTP response. Safety
// rejections surface the reason string verbatim.
func writeDomainError(w http.ResponseWriter, err error) {
	var safety *actuator.SafetyError
	switch {
	case errors.As(err, &safety):
		writeError(w, http.StatusConflict, ErrCodeSafetyRejected, safety.Reason)
	case errors.Is(err, actuator.ErrEmergencyStop):
		writeError(w, http.StatusConflict, ErrCodeEmergencyStop, "emergency stop is active")
	case errors.Is(err, command.ErrValidation):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, command.ErrDeviceUnavailable):
		writeError(w, http.StatusConflict, ErrCodeUnavailable, err.Error())
	case errors.Is(err, command.ErrDeliveryFailed):
		writeError(w, http.StatusBadGateway, ErrCodeDelivery, err.Error())
	case errors.Is(err, device.ErrDeviceNotFound),
		errors.Is(err, actuator.ErrNotFound),
		errors.Is(err, command.ErrNotFound),
		errors.Is(err, schedule.ErrNotFound),
		errors.Is(err, notify.ErrNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, device.ErrDeviceExists), errors.Is(err, actuator.ErrExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, device.ErrInvalidDevice),
		errors.Is(err, device.ErrInvalidDeviceType),
		errors.Is(err, schedule.ErrInvalidSchedule):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		writeInternalError(w, "internal server error")
	}
}
