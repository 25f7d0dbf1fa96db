package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// System status and fleet-wide safety
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
			r.Post("/emergency-stop", s.handleEmergencyStop)
			r.Delete("/emergency-stop", s.handleResetEmergencyStop)
		})

		// Device endpoints
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleCreateDevice)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Patch("/", s.handleUpdateDevice)
				r.Delete("/", s.handleDeleteDevice)
				r.Post("/status", s.handleDeviceStatusReport)
			})
		})

		// Actuator endpoints
		r.Route("/actuators", func(r chi.Router) {
			r.Get("/", s.handleListActuators)
			r.Get("/active", s.handleListActiveActuators)
			r.Get("/errored", s.handleListErroredActuators)
			r.Post("/reset-errors", s.handleResetActuatorErrors)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetActuator)
				r.Post("/activate", s.handleActivateActuator)
				r.Post("/deactivate", s.handleDeactivateActuator)
				r.Post("/clear-error", s.handleClearActuatorError)
				r.Put("/maintenance", s.handleSetActuatorMaintenance)
			})
		})

		// Command endpoints
		r.Route("/commands", func(r chi.Router) {
			r.Get("/", s.handleListCommands)
			r.Post("/", s.handleSubmitCommand)
			r.Get("/{id}", s.handleGetCommand)
		})

		// Schedule endpoints
		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", s.handleListSchedules)
			r.Post("/", s.handleCreateSchedule)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSchedule)
				r.Delete("/", s.handleDeleteSchedule)
				r.Put("/enabled", s.handleSetScheduleEnabled)
			})
		})

		// Notification endpoints
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleListNotifications)
			r.Post("/{id}/ack", s.handleAcknowledgeNotification)
		})

		// WebSocket for live telemetry and notification broadcast
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
