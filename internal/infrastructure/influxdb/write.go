package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorReading writes a habitat sensor reading to InfluxDB.
//
// This is the primary method for recording telemetry history.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Device that reported the reading (e.g., "habitat-01")
//   - foodLevel: Food hopper level in percent
//   - waterLevel: Water reservoir level in percent
//   - temperature: Habitat temperature in degrees Celsius
//   - humidity: Relative humidity in percent
func (c *Client) WriteSensorReading(deviceID string, foodLevel, waterLevel, temperature, humidity float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"food_level":  foodLevel,
			"water_level": waterLevel,
			"temperature": temperature,
			"humidity":    humidity,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteActuation records a completed actuator activation.
//
// Used for tracking dispensed amounts and energy consumption over time.
//
// Parameters:
//   - actuatorID: Actuator identifier (e.g., "feeder-01")
//   - kind: Actuator kind (e.g., "food_dispenser")
//   - amount: Dispensed amount (grams or millilitres, 0 for climate actuators)
//   - energyWh: Energy consumed by the activation in watt-hours
//   - durationS: Activation duration in seconds
func (c *Client) WriteActuation(actuatorID, kind string, amount, energyWh, durationS float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"actuations",
		map[string]string{
			"actuator_id": actuatorID,
			"kind":        kind,
		},
		map[string]interface{}{
			"amount":     amount,
			"energy_wh":  energyWh,
			"duration_s": durationS,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"commands_pending": 3.0})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
