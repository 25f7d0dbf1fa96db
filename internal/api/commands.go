package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/petcarelabs/petcare-core/internal/command"
)

// defaultCommandListLimit bounds unpaginated command listings.
const defaultCommandListLimit = 50

// submitCommandRequest is the body for POST /commands.
type submitCommandRequest struct {
	DeviceID string       `json:"device_id"`
	Kind     command.Kind `json:"kind"`
	Value    float64      `json:"value"`
}

// handleSubmitCommand validates and dispatches a command to hardware.
func (s *Server) handleSubmitCommand(w http.ResponseWriter, r *http.Request) {
	var req submitCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	cmd, err := s.dispatcher.Submit(r.Context(), req.DeviceID, req.Kind, req.Value, command.SourceAPI)
	if err != nil {
		// A delivery failure still produced a durable failed record;
		// report it alongside the error.
		writeDomainError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(ChannelCommands, cmd)
	}
	writeJSON(w, http.StatusAccepted, cmd)
}

// handleListCommands returns recent commands, optionally filtered by device.
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	limit := defaultCommandListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	var (
		commands []command.Command
		err      error
	)
	if deviceID := r.URL.Query().Get("device_id"); deviceID != "" {
		commands, err = s.dispatcher.ForDevice(r.Context(), deviceID, limit)
	} else {
		commands, err = s.dispatcher.Recent(r.Context(), limit)
	}
	if err != nil {
		s.logger.Error("listing commands", "error", err)
		writeInternalError(w, "failed to list commands")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"commands": commands,
		"count":    len(commands),
	})
}

// handleGetCommand returns the current state of one command.
func (s *Server) handleGetCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := s.dispatcher.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}
