package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// defaultNotificationListLimit bounds unpaginated notification listings.
const defaultNotificationListLimit = 50

// handleListNotifications returns recent notifications. With
// ?unacknowledged=true only open ones are returned.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("unacknowledged") == "true" {
		notifications, err := s.notifyRepo.ListUnacknowledged(r.Context())
		if err != nil {
			s.logger.Error("listing notifications", "error", err)
			writeInternalError(w, "failed to list notifications")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"notifications": notifications,
			"count":         len(notifications),
		})
		return
	}

	limit := defaultNotificationListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	notifications, err := s.notifyRepo.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing notifications", "error", err)
		writeInternalError(w, "failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// handleAcknowledgeNotification marks a notification as seen.
func (s *Server) handleAcknowledgeNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.notifyRepo.Acknowledge(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": id})
}
