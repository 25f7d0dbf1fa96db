package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petcarelabs/petcare-core/internal/infrastructure/config"
	"github.com/petcarelabs/petcare-core/internal/notify"
)

// Presence refreshes device liveness on each report.
// Satisfied by *device.Registry.
type Presence interface {
	MarkSeen(ctx context.Context, id string, seen time.Time) error
}

// Notifier receives threshold-crossing events without blocking.
// Satisfied by *notify.Queue.
type Notifier interface {
	Publish(n notify.Notification)
}

// HistoryWriter records readings in the time-series store.
// Satisfied by *influxdb.Client.
type HistoryWriter interface {
	WriteSensorReading(deviceID string, foodLevel, waterLevel, temperature, humidity float64)
}

// Broadcast pushes each accepted reading to live status consumers.
// It must not block.
type Broadcast func(r Reading)

// Logger is the minimal logging interface ingest needs.
// Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// violations tracks which thresholds a device currently breaches so
// alerts fire on the crossing, not on every reading inside the breach.
type violations map[notify.Kind]bool

// Ingest processes inbound telemetry.
//
// Thread Safety:
//   - HandleMessage is safe for concurrent use; last-known state and
//     violation tracking are guarded by a single mutex.
type Ingest struct {
	presence   Presence
	notifier   Notifier
	history    HistoryWriter
	thresholds config.ThresholdsConfig
	logger     Logger

	mu        sync.RWMutex
	broadcast Broadcast
	latest    map[string]Reading
	active    map[string]violations
}

// NewIngest creates a telemetry ingester. history and broadcast may be
// nil when time-series recording or live status is disabled. Pass nil
// for logger to disable ingest logging.
func NewIngest(presence Presence, notifier Notifier, history HistoryWriter, thresholds config.ThresholdsConfig, logger Logger) *Ingest {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Ingest{
		presence:   presence,
		notifier:   notifier,
		history:    history,
		thresholds: thresholds,
		logger:     logger,
		latest:     make(map[string]Reading),
		active:     make(map[string]violations),
	}
}

// SetBroadcast installs the live status sink. Safe to call while
// messages are already flowing; in-flight readings use whichever sink
// they observed.
func (i *Ingest) SetBroadcast(b Broadcast) {
	i.mu.Lock()
	i.broadcast = b
	i.mu.Unlock()
}

// HandleMessage processes one raw telemetry payload from a device.
// Test-prefixed payloads are discarded silently; malformed payloads are
// rejected with an error.
func (i *Ingest) HandleMessage(ctx context.Context, deviceID string, payload []byte) error {
	reading, err := ParseReading(deviceID, payload, time.Now().UTC())
	if errors.Is(err, ErrTestMessage) {
		i.logger.Debug("test telemetry discarded", "device", deviceID)
		return nil
	}
	if err != nil {
		return err
	}

	i.mu.Lock()
	i.latest[deviceID] = reading
	events := i.checkThresholdsLocked(reading)
	broadcast := i.broadcast
	i.mu.Unlock()

	// Presence refresh failure must not discard the reading; the next
	// report retries naturally.
	if err := i.presence.MarkSeen(ctx, deviceID, reading.ReceivedAt); err != nil {
		i.logger.Warn("refreshing device presence", "device", deviceID, "error", err)
	}

	for _, n := range events {
		i.notifier.Publish(n)
	}

	if i.history != nil {
		i.history.WriteSensorReading(deviceID,
			reading.FoodLevel, reading.WaterLevel, reading.Temperature, reading.Humidity)
	}
	if broadcast != nil {
		broadcast(reading)
	}

	i.logger.Debug("telemetry accepted",
		"device", deviceID,
		"food", reading.FoodLevel, "water", reading.WaterLevel,
		"temperature", reading.Temperature, "humidity", reading.Humidity)
	return nil
}

// checkThresholdsLocked compares a reading against the alert bands and
// returns events for newly crossed thresholds. Recovered thresholds are
// cleared so the next breach alerts again.
func (i *Ingest) checkThresholdsLocked(r Reading) []notify.Notification {
	current := i.active[r.DeviceID]
	if current == nil {
		current = make(violations)
		i.active[r.DeviceID] = current
	}

	var events []notify.Notification
	check := func(kind notify.Kind, breached bool, level notify.Level, message string) {
		if breached && !current[kind] {
			events = append(events, notify.New(level, kind, r.DeviceID, message))
		}
		current[kind] = breached
	}

	t := i.thresholds
	check(notify.KindLowFood, r.FoodLevel < t.FoodLevel, notify.LevelWarning,
		fmt.Sprintf("food level at %.1f%%, below %.1f%%", r.FoodLevel, t.FoodLevel))
	check(notify.KindLowWater, r.WaterLevel < t.WaterLevel, notify.LevelWarning,
		fmt.Sprintf("water level at %.1f%%, below %.1f%%", r.WaterLevel, t.WaterLevel))
	check(notify.KindTemperatureBand,
		r.Temperature < t.Temperature.Min || r.Temperature > t.Temperature.Max, notify.LevelCritical,
		fmt.Sprintf("temperature %.1fC outside %.1f-%.1fC", r.Temperature, t.Temperature.Min, t.Temperature.Max))
	check(notify.KindHumidityBand,
		r.Humidity < t.Humidity.Min || r.Humidity > t.Humidity.Max, notify.LevelWarning,
		fmt.Sprintf("humidity %.1f%% outside %.1f-%.1f%%", r.Humidity, t.Humidity.Min, t.Humidity.Max))

	return events
}

// Latest returns the last accepted reading for a device.
func (i *Ingest) Latest(deviceID string) (Reading, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	r, ok := i.latest[deviceID]
	return r, ok
}

// Snapshot returns the last accepted reading for every device.
func (i *Ingest) Snapshot() []Reading {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]Reading, 0, len(i.latest))
	for _, r := range i.latest {
		out = append(out, r)
	}
	return out
}
