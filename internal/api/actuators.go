package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/petcarelabs/petcare-core/internal/actuator"
)

// handleListActuators returns the status of every registered actuator.
func (s *Server) handleListActuators(w http.ResponseWriter, _ *http.Request) {
	statuses := s.controller.Statuses()
	writeJSON(w, http.StatusOK, map[string]any{
		"actuators": statuses,
		"count":     len(statuses),
	})
}

// handleListActiveActuators returns actuators currently driving output.
func (s *Server) handleListActiveActuators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"actuators": s.controller.Active()})
}

// handleListErroredActuators returns actuators in the error state.
func (s *Server) handleListErroredActuators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"actuators": s.controller.Errored()})
}

// handleGetActuator returns one actuator's status.
func (s *Server) handleGetActuator(w http.ResponseWriter, r *http.Request) {
	a, ok := s.controller.Get(chi.URLParam(r, "id"))
	if !ok {
		writeDomainError(w, actuator.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a.Status())
}

// activateRequest is the body for POST /actuators/{id}/activate.
// Duration is seconds; omitted means the actuator's maximum.
type activateRequest struct {
	Power    float64  `json:"power"`
	Duration *float64 `json:"duration,omitempty"`
}

// handleActivateActuator drives an actuator through the safety gate.
func (s *Server) handleActivateActuator(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := s.controller.Activate(id, req.Power, req.Duration)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.history != nil {
		if a, ok := s.controller.Get(id); ok {
			s.history.WriteActuation(id, string(a.Kind()), result.Amount, result.EnergyWh, result.Duration)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"activated": id,
		"result":    result,
	})
}

// handleDeactivateActuator ends an actuator's activation.
func (s *Server) handleDeactivateActuator(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.controller.Deactivate(id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deactivated": id})
}

// handleClearActuatorError returns an errored actuator to service.
func (s *Server) handleClearActuatorError(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := s.controller.Get(id)
	if !ok {
		writeDomainError(w, actuator.ErrNotFound)
		return
	}

	a.ClearError()
	writeJSON(w, http.StatusOK, a.Status())
}

// maintenanceRequest is the body for PUT /actuators/{id}/maintenance.
type maintenanceRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetActuatorMaintenance enters or leaves maintenance mode.
func (s *Server) handleSetActuatorMaintenance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := s.controller.Get(id)
	if !ok {
		writeDomainError(w, actuator.ErrNotFound)
		return
	}

	var req maintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	a.SetMaintenance(req.Enabled)
	writeJSON(w, http.StatusOK, a.Status())
}

// handleResetActuatorErrors clears the error state across the fleet.
func (s *Server) handleResetActuatorErrors(w http.ResponseWriter, _ *http.Request) {
	cleared := s.controller.ResetErrors()
	writeJSON(w, http.StatusOK, map[string]any{
		"cleared": cleared,
		"count":   len(cleared),
	})
}
