package mqtt

import "testing"

func TestTopics_Builders(t *testing.T) {
	topics := NewTopics("site-001")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"telemetry", topics.Telemetry("habitat-01"), "petcare/site-001/telemetry/habitat-01"},
		{"command", topics.Command("feeder-01"), "petcare/site-001/command/feeder-01"},
		{"device status", topics.DeviceStatus("feeder-01"), "petcare/site-001/status/feeder-01"},
		{"all telemetry", topics.AllTelemetry(), "petcare/site-001/telemetry/+"},
		{"all device status", topics.AllDeviceStatus(), "petcare/site-001/status/+"},
		{"system status", topics.SystemStatus(), "petcare/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestDeviceFromTopic(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		want  string
	}{
		{"telemetry topic", "petcare/site-001/telemetry/habitat-01", "habitat-01"},
		{"status topic", "petcare/site-001/status/feeder-01", "feeder-01"},
		{"too few segments", "petcare/system/status", ""},
		{"too many segments", "petcare/site-001/telemetry/habitat-01/extra", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeviceFromTopic(tt.topic); got != tt.want {
				t.Errorf("DeviceFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}
