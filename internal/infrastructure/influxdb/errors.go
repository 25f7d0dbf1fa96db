package influxdb

import "errors"

// Domain-specific errors for InfluxDB operations.
var (
	// ErrDisabled is returned by Connect when InfluxDB is disabled in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrNotConnected is returned when attempting operations on a closed client.
	ErrNotConnected = errors.New("influxdb: client not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("influxdb: connection failed")
)
