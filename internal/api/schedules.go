package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/petcarelabs/petcare-core/internal/command"
	"github.com/petcarelabs/petcare-core/internal/schedule"
)

// handleListSchedules returns every schedule.
func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.scheduleRepo.List(r.Context())
	if err != nil {
		s.logger.Error("listing schedules", "error", err)
		writeInternalError(w, "failed to list schedules")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"schedules": schedules,
		"count":     len(schedules),
	})
}

// createScheduleRequest is the body for POST /schedules.
type createScheduleRequest struct {
	DeviceID  string       `json:"device_id"`
	Kind      command.Kind `json:"kind"`
	TimeOfDay string       `json:"time_of_day"`
	Weekdays  []int        `json:"weekdays"`
	Amount    float64      `json:"amount"`
	Enabled   *bool        `json:"enabled,omitempty"`
}

// handleCreateSchedule creates a recurring rule. Schedules start
// enabled unless the request says otherwise.
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	// The target device must exist before a rule can reference it.
	if _, err := s.registry.Get(r.Context(), req.DeviceID); err != nil {
		writeDomainError(w, err)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	sch := &schedule.Schedule{
		ID:        schedule.NewID(),
		DeviceID:  req.DeviceID,
		Kind:      req.Kind,
		TimeOfDay: req.TimeOfDay,
		Weekdays:  req.Weekdays,
		Amount:    req.Amount,
		Enabled:   enabled,
	}
	if err := s.scheduleRepo.Create(r.Context(), sch); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sch)
}

// handleGetSchedule returns one schedule by ID.
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	sch, err := s.scheduleRepo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sch)
}

// setScheduleEnabledRequest is the body for PUT /schedules/{id}/enabled.
type setScheduleEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetScheduleEnabled toggles a schedule.
func (s *Server) handleSetScheduleEnabled(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req setScheduleEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.scheduleRepo.SetEnabled(r.Context(), id, req.Enabled); err != nil {
		writeDomainError(w, err)
		return
	}

	sch, err := s.scheduleRepo.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sch)
}

// handleDeleteSchedule removes a schedule.
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.scheduleRepo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
