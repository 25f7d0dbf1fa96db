// Package telemetry ingests sensor readings reported by hardware.
//
// Devices publish a comma-separated four-field payload:
//
//	food,water,temperature,humidity
//
// food, water and humidity are percentages; temperature is °C.
// Payloads beginning with the reserved test prefix are discarded
// without processing.
//
// Ingest keeps the last-known reading per device, refreshes device
// presence, evaluates alert thresholds edge-triggered (an event is
// raised when a reading crosses into violation, not on every reading
// inside it), forwards readings to the time-series store, and pushes
// them to the status broadcast.
package telemetry
