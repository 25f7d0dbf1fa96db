// Package influxdb provides the telemetry history sink for PetCare Core.
//
// Sensor readings and actuation metrics are written to InfluxDB with
// non-blocking batched writes. The hot ingest path never waits on the
// time-series store; write failures surface through an error callback.
//
// InfluxDB is optional. When disabled in config, Connect returns
// ErrDisabled and callers run without history.
package influxdb
