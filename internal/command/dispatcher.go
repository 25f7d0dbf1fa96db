package command

import (
	"context"
	"fmt"
	"time"

	"github.com/petcarelabs/petcare-core/internal/device"
	"github.com/petcarelabs/petcare-core/internal/infrastructure/mqtt"
)

// Publisher is the transport surface the dispatcher needs.
// Satisfied by *mqtt.Client.
type Publisher interface {
	PublishWithTimeout(topic string, payload []byte, qos byte, retained bool, timeout time.Duration) error
}

// DeviceDirectory resolves device identity and presence.
// Satisfied by *device.Registry.
type DeviceDirectory interface {
	Get(ctx context.Context, id string) (*device.Device, error)
}

// SafetyGate vets a command's target against the actuator safety
// contract before anything is persisted or published. A nil return
// authorises dispatch. Satisfied by *actuator.Controller.
type SafetyGate interface {
	SafeToDispatch(deviceID string) error
}

// Logger is the minimal logging interface the dispatcher needs.
// Compatible with logging.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Dispatcher turns command submissions into persisted records and
// hardware publishes.
//
// Thread Safety:
//   - Submit and HandleStatusReport are safe for concurrent use;
//     command rows are serialised by conditional single-row updates.
type Dispatcher struct {
	repo      Repository
	devices   DeviceDirectory
	publisher Publisher
	safety    SafetyGate
	topics    mqtt.Topics
	logger    Logger

	qos     byte
	timeout time.Duration
}

// NewDispatcher creates a dispatcher. timeout bounds the publish
// acknowledgment wait; qos is the transport QoS for command publishes.
// Pass nil for safety to dispatch ungated, nil for logger to disable
// dispatcher logging.
func NewDispatcher(repo Repository, devices DeviceDirectory, publisher Publisher, safety SafetyGate, topics mqtt.Topics, qos byte, timeout time.Duration, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		repo:      repo,
		devices:   devices,
		publisher: publisher,
		safety:    safety,
		topics:    topics,
		logger:    logger,
		qos:       qos,
		timeout:   timeout,
	}
}

// Submit validates, persists, and delivers a command.
//
// The sequence is fixed: validate input, confirm the device exists and
// is online, pass the safety gate (nothing is persisted for an
// unavailable or gated device), write the pending record, publish with
// a bounded timeout, then record the outcome. The returned command
// reflects the post-publish status. The caller is never blocked on
// hardware-side completion.
func (d *Dispatcher) Submit(ctx context.Context, deviceID string, kind Kind, value float64, source Source) (*Command, error) {
	if err := validate(kind, value); err != nil {
		return nil, err
	}

	dev, err := d.devices.Get(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, deviceID)
	}
	if !dev.Online {
		return nil, fmt.Errorf("%w: %s is offline", ErrDeviceUnavailable, deviceID)
	}

	// The actuator safety contract is authoritative: no message reaches
	// hardware while the fleet emergency stop is set or the target's
	// safety gate rejects.
	if d.safety != nil {
		if err := d.safety.SafeToDispatch(deviceID); err != nil {
			return nil, err
		}
	}

	payload, err := EncodeWire(kind, value)
	if err != nil {
		return nil, err
	}

	cmd := &Command{
		ID:       newCommandID(),
		DeviceID: deviceID,
		Kind:     kind,
		Value:    value,
		Payload:  payload,
		Status:   StatusPending,
		Source:   source,
	}

	// Write before acknowledge: the pending record is durable before
	// the transport sees the message.
	if err := d.repo.Create(ctx, cmd); err != nil {
		return nil, fmt.Errorf("persisting command: %w", err)
	}

	topic := d.topics.Command(deviceID)
	if err := d.publisher.PublishWithTimeout(topic, []byte(payload), d.qos, false, d.timeout); err != nil {
		d.logger.Warn("command delivery failed",
			"command", cmd.ID, "device", deviceID, "error", err)

		cmd.Status = StatusFailed
		cmd.Error = err.Error()
		if uerr := d.repo.UpdateStatus(ctx, cmd.ID, StatusFailed, err.Error()); uerr != nil {
			d.logger.Error("recording delivery failure", "command", cmd.ID, "error", uerr)
		}
		return cmd, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	cmd.Status = StatusProcessing
	if err := d.repo.UpdateStatus(ctx, cmd.ID, StatusProcessing, ""); err != nil {
		return cmd, fmt.Errorf("recording publish acknowledgment: %w", err)
	}

	d.logger.Info("command dispatched",
		"command", cmd.ID, "device", deviceID, "kind", kind, "payload", payload)
	return cmd, nil
}

// StatusReport is a device-originated report about a command it
// executed. An empty CommandID targets the device's newest processing
// command.
type StatusReport struct {
	DeviceID  string
	CommandID string
	Success   bool
	Message   string
}

// HandleStatusReport reconciles an out-of-band device report with the
// command record, transitioning processing → completed or failed.
// A report for a command that has already left processing is ignored.
func (d *Dispatcher) HandleStatusReport(ctx context.Context, report StatusReport) error {
	id := report.CommandID
	if id == "" {
		cmd, err := d.repo.LatestByDeviceAndStatus(ctx, report.DeviceID, StatusProcessing)
		if err != nil {
			return err
		}
		id = cmd.ID
	}

	to := StatusCompleted
	errMsg := ""
	if !report.Success {
		to = StatusFailed
		errMsg = report.Message
	}

	applied, err := d.repo.TransitionStatus(ctx, id, StatusProcessing, to, errMsg)
	if err != nil {
		return err
	}
	if !applied {
		d.logger.Warn("stale status report ignored",
			"command", id, "device", report.DeviceID)
		return nil
	}

	d.logger.Info("command reconciled", "command", id, "status", to)
	return nil
}

// Get returns the current state of a command.
func (d *Dispatcher) Get(ctx context.Context, id string) (*Command, error) {
	return d.repo.GetByID(ctx, id)
}

// Recent returns the newest commands across all devices.
func (d *Dispatcher) Recent(ctx context.Context, limit int) ([]Command, error) {
	return d.repo.ListRecent(ctx, limit)
}

// ForDevice returns the newest commands for one device.
func (d *Dispatcher) ForDevice(ctx context.Context, deviceID string, limit int) ([]Command, error) {
	return d.repo.ListByDevice(ctx, deviceID, limit)
}
