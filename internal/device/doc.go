// Package device manages the fleet device inventory for PetCare Core.
//
// A device is any MQTT-addressable endpoint at a site: habitat sensor
// nodes that report telemetry, and actuator endpoints that receive
// commands. The package provides:
//
//   - Device: the canonical device model
//   - Repository: persistence interface with a SQLite implementation
//   - Registry: cached access layer used by the dispatcher and API
//
// The registry is the single authority for device presence. Telemetry
// ingest marks reporting devices online; the dispatcher consults the
// registry before accepting commands.
package device
