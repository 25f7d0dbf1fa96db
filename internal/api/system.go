package api

import (
	"net/http"
	"time"

	"github.com/petcarelabs/petcare-core/internal/notify"
	"github.com/petcarelabs/petcare-core/internal/telemetry"
)

// systemStatus is the response for GET /system/status.
type systemStatus struct {
	SiteID        string `json:"site_id"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	EmergencyStop bool   `json:"emergency_stop"`

	Devices struct {
		Total  int `json:"total"`
		Online int `json:"online"`
	} `json:"devices"`

	Actuators struct {
		Total   int `json:"total"`
		Active  int `json:"active"`
		Errored int `json:"errored"`
	} `json:"actuators"`

	MQTTConnected    bool `json:"mqtt_connected"`
	WebSocketClients int  `json:"websocket_clients"`

	// Telemetry is the last accepted reading per reporting device.
	Telemetry []telemetry.Reading `json:"telemetry"`
}

// handleSystemStatus summarises the deployment for dashboards.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := systemStatus{
		SiteID:        s.siteID,
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		EmergencyStop: s.controller.EmergencyStopActive(),
	}

	devices, err := s.registry.List(r.Context())
	if err != nil {
		s.logger.Error("listing devices for system status", "error", err)
		writeInternalError(w, "failed to read device inventory")
		return
	}
	status.Devices.Total = len(devices)
	for _, d := range devices {
		if d.Online {
			status.Devices.Online++
		}
	}

	status.Actuators.Total = s.controller.Count()
	status.Actuators.Active = len(s.controller.Active())
	status.Actuators.Errored = len(s.controller.Errored())

	if s.mqtt != nil {
		status.MQTTConnected = s.mqtt.IsConnected()
	}
	if s.hub != nil {
		status.WebSocketClients = s.hub.ClientCount()
	}
	if s.ingest != nil {
		status.Telemetry = s.ingest.Snapshot()
	}

	writeJSON(w, http.StatusOK, status)
}

// handleEmergencyStop triggers the fleet-wide stop.
func (s *Server) handleEmergencyStop(w http.ResponseWriter, _ *http.Request) {
	s.controller.EmergencyStop()

	if s.notifier != nil {
		s.notifier.Publish(notify.New(notify.LevelCritical, notify.KindEmergencyStop, "",
			"emergency stop triggered, all actuators deactivated"))
	}

	writeJSON(w, http.StatusOK, map[string]any{"emergency_stop": true})
}

// handleResetEmergencyStop clears the fleet-wide stop. Individual
// actuator error states are untouched.
func (s *Server) handleResetEmergencyStop(w http.ResponseWriter, _ *http.Request) {
	s.controller.ResetEmergencyStop()

	if s.notifier != nil {
		s.notifier.Publish(notify.New(notify.LevelInfo, notify.KindEmergencyStop, "",
			"emergency stop reset, activations allowed"))
	}

	writeJSON(w, http.StatusOK, map[string]any{"emergency_stop": false})
}
