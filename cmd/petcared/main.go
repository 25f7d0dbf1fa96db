// PetCare Core - IoT Pet Care Fleet Coordinator
//
// This is the main entry point for the PetCare Core application.
// PetCare Core coordinates a fleet of pet care devices:
//   - Feeders and water dispensers with hard safety limits
//   - Environmental actuators (heaters, fans, humidifiers)
//   - Sensor nodes reporting food/water/temperature/humidity
//
// Devices talk MQTT; user interfaces talk HTTP and WebSocket.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/petcarelabs/petcare-core/migrations"

	"github.com/petcarelabs/petcare-core/internal/actuator"
	"github.com/petcarelabs/petcare-core/internal/api"
	"github.com/petcarelabs/petcare-core/internal/command"
	"github.com/petcarelabs/petcare-core/internal/device"
	"github.com/petcarelabs/petcare-core/internal/infrastructure/config"
	"github.com/petcarelabs/petcare-core/internal/infrastructure/database"
	"github.com/petcarelabs/petcare-core/internal/infrastructure/influxdb"
	"github.com/petcarelabs/petcare-core/internal/infrastructure/logging"
	"github.com/petcarelabs/petcare-core/internal/infrastructure/mqtt"
	"github.com/petcarelabs/petcare-core/internal/notify"
	"github.com/petcarelabs/petcare-core/internal/schedule"
	"github.com/petcarelabs/petcare-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// notifyQueueCapacity bounds the in-flight notification buffer.
const notifyQueueCapacity = 256

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting PetCare Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device registry
	registry := device.NewRegistry(device.NewSQLiteRepository(db.DB), log)
	if loadErr := registry.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading device registry: %w", loadErr)
	}
	log.Info("device registry initialised", "devices", registry.Count())

	// Build the actuator fleet from registered actuator-type devices
	controller := actuator.NewController(log)
	if buildErr := buildFleet(ctx, registry, controller); buildErr != nil {
		return fmt.Errorf("building actuator fleet: %w", buildErr)
	}
	log.Info("actuator fleet initialised", "actuators", controller.Count())

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional telemetry history)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Notification queue: persists and broadcasts events raised anywhere
	// in the core without blocking the raising path
	notifyRepo := notify.NewSQLiteRepository(db.DB)
	notifyQueue := notify.NewQueue(notifyRepo, notifyQueueCapacity, log)
	go notifyQueue.Run(ctx)

	// Command dispatcher over the MQTT transport
	topics := mqtt.NewTopics(cfg.Site.ID)
	dispatcher := command.NewDispatcher(
		command.NewSQLiteRepository(db.DB),
		registry,
		mqttClient,
		controller,
		topics,
		byte(cfg.MQTT.QoS),
		cfg.PublishTimeout(),
		log,
	)

	// Telemetry ingest: history writer stays nil when InfluxDB is
	// disabled so ingest skips the time-series path entirely
	var history telemetry.HistoryWriter
	if influxClient != nil {
		history = influxClient
	}
	ingest := telemetry.NewIngest(registry, notifyQueue, history, cfg.Thresholds, log)

	// WebSocket hub carries live telemetry, notifications, and command
	// updates; created here so ingest and the queue can broadcast into it
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)
	ingest.SetBroadcast(func(r telemetry.Reading) {
		hub.Broadcast(api.ChannelTelemetry, r)
	})
	notifyQueue.SetBroadcast(func(n notify.Notification) {
		hub.Broadcast(api.ChannelNotifications, n)
	})

	// Schedule evaluator fires recurring commands in the site's timezone
	loc, err := time.LoadLocation(cfg.Site.Timezone)
	if err != nil {
		return fmt.Errorf("loading site timezone %q: %w", cfg.Site.Timezone, err)
	}
	evaluator := schedule.NewEvaluator(
		schedule.NewSQLiteRepository(db.DB),
		dispatcher,
		loc,
		cfg.SchedulerTick(),
		log,
	)
	go evaluator.Run(ctx)

	// Subscribe to device traffic
	if err := subscribeDeviceTopics(ctx, mqttClient, topics, byte(cfg.MQTT.QoS), ingest, dispatcher, registry, controller, notifyQueue, log); err != nil {
		return fmt.Errorf("subscribing to device topics: %w", err)
	}
	log.Info("device topic subscriptions active",
		"telemetry", topics.AllTelemetry(),
		"status", topics.AllDeviceStatus(),
	)

	// Start the HTTP API server
	apiDeps := api.Deps{
		Config:       cfg.API,
		WS:           cfg.WebSocket,
		Logger:       log,
		Registry:     registry,
		Controller:   controller,
		Dispatcher:   dispatcher,
		ScheduleRepo: schedule.NewSQLiteRepository(db.DB),
		NotifyRepo:   notifyRepo,
		Notifier:     notifyQueue,
		Ingest:       ingest,
		MQTT:         mqttClient,
		ExternalHub:  hub,
		SiteID:       cfg.Site.ID,
		Version:      version,
	}
	// Assign only when connected: a nil *influxdb.Client inside the
	// interface would pass the nil check but panic on use.
	if influxClient != nil {
		apiDeps.History = influxClient
	}
	server, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("PetCare Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PETCARE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PETCARE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildFleet registers an actuator for every actuator-type device in
// the registry. Devices already marked online are connected immediately.
func buildFleet(ctx context.Context, registry *device.Registry, controller *actuator.Controller) error {
	devices, err := registry.List(ctx)
	if err != nil {
		return err
	}

	for _, d := range devices {
		if !d.Type.IsActuator() {
			continue
		}
		a, err := actuator.New(d.ID, d.Name, d.Type)
		if err != nil {
			return fmt.Errorf("device %s: %w", d.ID, err)
		}
		if err := controller.Register(a); err != nil {
			return fmt.Errorf("device %s: %w", d.ID, err)
		}
		if d.Online {
			a.Connect()
		}
	}
	return nil
}

// deviceStatusMessage is the JSON payload devices publish on their
// status topic. A presence change carries online; a command outcome
// carries success and optionally command_id.
type deviceStatusMessage struct {
	Online    *bool  `json:"online,omitempty"`
	CommandID string `json:"command_id,omitempty"`
	Success   *bool  `json:"success,omitempty"`
	Message   string `json:"message,omitempty"`
}

// subscribeDeviceTopics wires inbound MQTT traffic into the core:
// telemetry into ingest, status reports into presence tracking and
// command reconciliation.
func subscribeDeviceTopics(
	ctx context.Context,
	client *mqtt.Client,
	topics mqtt.Topics,
	qos byte,
	ingest *telemetry.Ingest,
	dispatcher *command.Dispatcher,
	registry *device.Registry,
	controller *actuator.Controller,
	notifier *notify.Queue,
	log *logging.Logger,
) error {
	err := client.Subscribe(topics.AllTelemetry(), qos, func(topic string, payload []byte) error {
		deviceID := mqtt.DeviceFromTopic(topic)
		if deviceID == "" {
			return fmt.Errorf("no device id in topic %s", topic)
		}
		return ingest.HandleMessage(ctx, deviceID, payload)
	})
	if err != nil {
		return fmt.Errorf("telemetry subscription: %w", err)
	}

	err = client.Subscribe(topics.AllDeviceStatus(), qos, func(topic string, payload []byte) error {
		deviceID := mqtt.DeviceFromTopic(topic)
		if deviceID == "" {
			return fmt.Errorf("no device id in topic %s", topic)
		}

		var msg deviceStatusMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("device %s status payload: %w", deviceID, err)
		}

		if msg.Online != nil {
			applyPresence(ctx, registry, controller, notifier, log, deviceID, *msg.Online)
		}

		if msg.Success != nil {
			report := command.StatusReport{
				DeviceID:  deviceID,
				CommandID: msg.CommandID,
				Success:   *msg.Success,
				Message:   msg.Message,
			}
			if err := dispatcher.HandleStatusReport(ctx, report); err != nil {
				return fmt.Errorf("device %s status report: %w", deviceID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("device status subscription: %w", err)
	}

	return nil
}

// applyPresence records a device presence change and keeps the matching
// actuator's connectivity in step. Transitions raise a notification;
// repeated reports of the same state do not.
func applyPresence(
	ctx context.Context,
	registry *device.Registry,
	controller *actuator.Controller,
	notifier *notify.Queue,
	log *logging.Logger,
	deviceID string,
	online bool,
) {
	dev, err := registry.Get(ctx, deviceID)
	if err != nil {
		log.Warn("presence report for unknown device", "device", deviceID)
		return
	}
	wasOnline := dev.Online

	if online {
		if err := registry.MarkSeen(ctx, deviceID, time.Now().UTC()); err != nil {
			log.Error("marking device seen", "device", deviceID, "error", err)
			return
		}
		if a, ok := controller.Get(deviceID); ok {
			a.Connect()
		}
		if !wasOnline {
			notifier.Publish(notify.New(notify.LevelInfo, notify.KindDeviceOnline, deviceID, dev.Name+" is online"))
		}
		return
	}

	if err := registry.MarkOffline(ctx, deviceID); err != nil {
		log.Error("marking device offline", "device", deviceID, "error", err)
		return
	}
	if a, ok := controller.Get(deviceID); ok {
		a.Disconnect()
	}
	if wasOnline {
		notifier.Publish(notify.New(notify.LevelWarning, notify.KindDeviceOffline, deviceID, dev.Name+" went offline"))
	}
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
