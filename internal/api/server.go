// Package api provides the HTTP REST API and WebSocket server for
// PetCare Core.
//
// It exposes device registry operations, actuator control, command
// submission, schedule management, notifications, and live telemetry
// broadcast to user interfaces (mobile app, web dashboard).
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/petcarelabs/petcare-core/internal/actuator"
	"github.com/petcarelabs/petcare-core/internal/command"
	"github.com/petcarelabs/petcare-core/internal/device"
	"github.com/petcarelabs/petcare-core/internal/infrastructure/config"
	"github.com/petcarelabs/petcare-core/internal/infrastructure/logging"
	"github.com/petcarelabs/petcare-core/internal/infrastructure/mqtt"
	"github.com/petcarelabs/petcare-core/internal/notify"
	"github.com/petcarelabs/petcare-core/internal/schedule"
	"github.com/petcarelabs/petcare-core/internal/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ActuationRecorder persists actuation events for historical analysis.
// Satisfied by *influxdb.Client. Recording is fire-and-forget.
type ActuationRecorder interface {
	WriteActuation(actuatorID, kind string, amount, energyWh, durationS float64)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	WS           config.WebSocketConfig
	Logger       *logging.Logger
	Registry     *device.Registry
	Controller   *actuator.Controller
	Dispatcher   *command.Dispatcher
	ScheduleRepo schedule.Repository
	NotifyRepo   notify.Repository
	Notifier     *notify.Queue
	Ingest       *telemetry.Ingest
	MQTT         *mqtt.Client      // optional: health reporting only
	History      ActuationRecorder // optional: actuation history sink
	ExternalHub  *Hub              // If set, the server uses this hub instead of creating its own
	SiteID       string
	Version      string
}

// Server is the HTTP API server for PetCare Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	wsCfg        config.WebSocketConfig
	logger       *logging.Logger
	registry     *device.Registry
	controller   *actuator.Controller
	dispatcher   *command.Dispatcher
	scheduleRepo schedule.Repository
	notifyRepo   notify.Repository
	notifier     *notify.Queue
	ingest       *telemetry.Ingest
	mqtt         *mqtt.Client
	history      ActuationRecorder
	siteID       string
	version      string
	startedAt    time.Time
	server       *http.Server
	hub          *Hub
	externalHub  bool               // true if hub was injected externally
	cancel       context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("actuator controller is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("command dispatcher is required")
	}

	s := &Server{
		cfg:          deps.Config,
		wsCfg:        deps.WS,
		logger:       deps.Logger,
		registry:     deps.Registry,
		controller:   deps.Controller,
		dispatcher:   deps.Dispatcher,
		scheduleRepo: deps.ScheduleRepo,
		notifyRepo:   deps.NotifyRepo,
		notifier:     deps.Notifier,
		ingest:       deps.Ingest,
		mqtt:         deps.MQTT,
		history:      deps.History,
		siteID:       deps.SiteID,
		version:      deps.Version,
	}

	// Use externally-provided hub if available (needed when telemetry
	// ingest also requires the hub for WebSocket broadcasting).
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the
// HTTP listener in a background goroutine. The server can be stopped
// with Close().
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	// Create WebSocket hub (unless one was injected externally)
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	s.startedAt = time.Now()

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	// Start listening in background
	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
