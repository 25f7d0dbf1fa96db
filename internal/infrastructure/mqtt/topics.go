package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes per the PetCare MQTT conventions.
//
// Device-facing topics are scoped by site ID so several installations can
// share one broker: petcare/{site}/{category}/{device}
const (
	// TopicPrefix is the base for all PetCare topics.
	TopicPrefix = "petcare"

	// TopicPrefixSystem is the base for system topics (not site-scoped).
	TopicPrefixSystem = "petcare/system"
)

// Topics provides builders for PetCare MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.NewTopics("site-001")
//	cmdTopic := topics.Command("feeder-01")
//	// Returns: "petcare/site-001/command/feeder-01"
type Topics struct {
	siteID string
}

// NewTopics creates a topic builder scoped to the given site.
func NewTopics(siteID string) Topics {
	return Topics{siteID: siteID}
}

// Telemetry returns the topic a device publishes sensor readings to.
//
// Example: petcare/site-001/telemetry/habitat-01
func (t Topics) Telemetry(deviceID string) string {
	return fmt.Sprintf("%s/%s/telemetry/%s", TopicPrefix, t.siteID, deviceID)
}

// Command returns the topic the server publishes actuation commands to.
//
// Example: petcare/site-001/command/feeder-01
func (t Topics) Command(deviceID string) string {
	return fmt.Sprintf("%s/%s/command/%s", TopicPrefix, t.siteID, deviceID)
}

// DeviceStatus returns the topic a device publishes status reports to.
// Status reports carry command completion results and device health.
//
// Example: petcare/site-001/status/feeder-01
func (t Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/status/%s", TopicPrefix, t.siteID, deviceID)
}

// AllTelemetry returns a pattern matching telemetry from every device
// at this site.
//
// Pattern: petcare/site-001/telemetry/+
func (t Topics) AllTelemetry() string {
	return fmt.Sprintf("%s/%s/telemetry/+", TopicPrefix, t.siteID)
}

// AllDeviceStatus returns a pattern matching status reports from every
// device at this site.
//
// Pattern: petcare/site-001/status/+
func (t Topics) AllDeviceStatus() string {
	return fmt.Sprintf("%s/%s/status/+", TopicPrefix, t.siteID)
}

// SystemStatus returns the core online/offline status topic.
// This topic is retained and carries the Last Will and Testament.
//
// Example: petcare/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// DeviceFromTopic extracts the device ID from a site-scoped topic.
// Returns the final topic segment, or empty string if the topic does
// not have exactly four levels.
func DeviceFromTopic(topic string) string {
	// petcare/{site}/{category}/{device}
	parts := strings.Split(topic, "/")
	if len(parts) != 4 {
		return ""
	}
	return parts[3]
}
