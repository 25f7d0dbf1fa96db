package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/petcarelabs/petcare-core/internal/actuator"
	"github.com/petcarelabs/petcare-core/internal/command"
	"github.com/petcarelabs/petcare-core/internal/device"
	"github.com/petcarelabs/petcare-core/internal/notify"
)

// handleListDevices returns every registered device.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.List(r.Context())
	if err != nil {
		s.logger.Error("listing devices", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// createDeviceRequest is the body for POST /devices.
type createDeviceRequest struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     device.Type `json:"type"`
	Location string      `json:"location"`
}

// handleCreateDevice registers a new device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev := &device.Device{
		ID:       req.ID,
		Name:     req.Name,
		Type:     req.Type,
		Location: req.Location,
	}
	if err := s.registry.Create(r.Context(), dev); err != nil {
		writeDomainError(w, err)
		return
	}

	// Actuator-type devices join the controller fleet immediately so
	// activation works without a restart.
	if dev.Type.IsActuator() {
		a, err := actuator.New(dev.ID, dev.Name, dev.Type)
		if err == nil {
			err = s.controller.Register(a)
		}
		if err != nil {
			s.logger.Warn("registering actuator for new device", "device", dev.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, dev)
}

// handleGetDevice returns one device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// updateDeviceRequest is the body for PATCH /devices/{id}.
// Only name and location can change after registration.
type updateDeviceRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

// handleUpdateDevice updates mutable device fields.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var req updateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Name != nil {
		dev.Name = *req.Name
	}
	if req.Location != nil {
		dev.Location = *req.Location
	}

	if err := s.registry.Update(r.Context(), dev); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleDeleteDevice removes a device and its actuator registration.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.registry.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	// Actuator registration is best-effort; sensor nodes have none.
	//nolint:errcheck // Unregistered IDs are expected for sensor nodes
	s.controller.Unregister(id)

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// deviceStatusRequest is the body for POST /devices/{id}/status.
// Devices (or their gateways) report presence changes and command
// execution outcomes through this endpoint.
type deviceStatusRequest struct {
	Online    *bool  `json:"online"`
	CommandID string `json:"command_id,omitempty"`
	Success   *bool  `json:"success,omitempty"`
	Message   string `json:"message,omitempty"`
}

// handleDeviceStatusReport records a device-originated status change.
func (s *Server) handleDeviceStatusReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req deviceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Online == nil && req.Success == nil {
		writeBadRequest(w, "status report must carry online or success")
		return
	}

	if req.Online != nil {
		if err := s.applyPresence(r, id, *req.Online); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	// A command outcome reconciles the device's processing command.
	if req.Success != nil {
		report := command.StatusReport{
			DeviceID:  id,
			CommandID: req.CommandID,
			Success:   *req.Success,
			Message:   req.Message,
		}
		if err := s.dispatcher.HandleStatusReport(r.Context(), report); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}

// applyPresence updates presence state and raises the matching
// notification on a transition.
func (s *Server) applyPresence(r *http.Request, id string, online bool) error {
	dev, err := s.registry.Get(r.Context(), id)
	if err != nil {
		return err
	}

	if online {
		if err := s.registry.MarkSeen(r.Context(), id, time.Now().UTC()); err != nil {
			return err
		}
		if a, ok := s.controller.Get(id); ok {
			a.Connect()
		}
		if !dev.Online && s.notifier != nil {
			s.notifier.Publish(notify.New(notify.LevelInfo, notify.KindDeviceOnline, id, dev.Name+" is online"))
		}
		return nil
	}

	if err := s.registry.MarkOffline(r.Context(), id); err != nil {
		return err
	}
	if a, ok := s.controller.Get(id); ok {
		a.Disconnect()
	}
	if dev.Online && s.notifier != nil {
		s.notifier.Publish(notify.New(notify.LevelWarning, notify.KindDeviceOffline, id, dev.Name+" went offline"))
	}
	return nil
}
