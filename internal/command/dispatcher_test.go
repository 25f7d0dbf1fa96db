package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/petcarelabs/petcare-core/internal/actuator"
	"github.com/petcarelabs/petcare-core/internal/device"
	"github.com/petcarelabs/petcare-core/internal/infrastructure/mqtt"
)

// ─── Test doubles ───

type stubDirectory struct {
	devices map[string]*device.Device
}

func (s *stubDirectory) Get(_ context.Context, id string) (*device.Device, error) {
	d, ok := s.devices[id]
	if !ok {
		return nil, device.ErrDeviceNotFound
	}
	return d.DeepCopy(), nil
}

type published struct {
	topic   string
	payload string
}

type stubPublisher struct {
	messages []published
	err      error
}

func (s *stubPublisher) PublishWithTimeout(topic string, payload []byte, _ byte, _ bool, _ time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, published{topic: topic, payload: string(payload)})
	return nil
}

func newTestDispatcher(t *testing.T, pub *stubPublisher) (*Dispatcher, *SQLiteRepository) {
	t.Helper()

	repo := NewSQLiteRepository(newTestDB(t))
	dir := &stubDirectory{devices: map[string]*device.Device{
		"feeder-01": {ID: "feeder-01", Name: "Feeder", Type: device.TypeFoodDispenser, Online: true},
		"heater-01": {ID: "heater-01", Name: "Heater", Type: device.TypeHeater, Online: false},
	}}
	d := NewDispatcher(repo, dir, pub, nil, mqtt.NewTopics("site-1"), 1, time.Second, nil)
	return d, repo
}

// newGatedDispatcher wires a dispatcher through a real actuator
// controller with a registered feeder, so the safety contract applies.
func newGatedDispatcher(t *testing.T, pub *stubPublisher) (*Dispatcher, *SQLiteRepository, *actuator.Controller) {
	t.Helper()

	repo := NewSQLiteRepository(newTestDB(t))
	dir := &stubDirectory{devices: map[string]*device.Device{
		"feeder-01": {ID: "feeder-01", Name: "Feeder", Type: device.TypeFoodDispenser, Online: true},
	}}

	ctrl := actuator.NewController(nil)
	a, err := actuator.New("feeder-01", "Feeder", device.TypeFoodDispenser)
	if err != nil {
		t.Fatalf("creating test actuator: %v", err)
	}
	if err := ctrl.Register(a); err != nil {
		t.Fatalf("registering test actuator: %v", err)
	}

	d := NewDispatcher(repo, dir, pub, ctrl, mqtt.NewTopics("site-1"), 1, time.Second, nil)
	return d, repo, ctrl
}

// ─── Submit ───

func TestDispatcher_Submit(t *testing.T) {
	pub := &stubPublisher{}
	d, repo := newTestDispatcher(t, pub)
	ctx := context.Background()

	cmd, err := d.Submit(ctx, "feeder-01", KindDispenseFood, 50, SourceAPI)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if cmd.Status != StatusProcessing {
		t.Errorf("Status = %q, want %q", cmd.Status, StatusProcessing)
	}
	if cmd.Payload != "F50" {
		t.Errorf("Payload = %q, want %q", cmd.Payload, "F50")
	}

	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	if pub.messages[0].topic != "petcare/site-1/command/feeder-01" {
		t.Errorf("topic = %q, want command topic for feeder-01", pub.messages[0].topic)
	}
	if pub.messages[0].payload != "F50" {
		t.Errorf("wire payload = %q, want %q", pub.messages[0].payload, "F50")
	}

	stored, err := repo.GetByID(ctx, cmd.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != StatusProcessing {
		t.Errorf("stored status = %q, want %q", stored.Status, StatusProcessing)
	}
}

func TestDispatcher_SubmitOfflineDevice(t *testing.T) {
	pub := &stubPublisher{}
	d, repo := newTestDispatcher(t, pub)
	ctx := context.Background()

	_, err := d.Submit(ctx, "heater-01", KindSetTemperature, 22.5, SourceAPI)
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("Submit() error = %v, want ErrDeviceUnavailable", err)
	}

	// Nothing is persisted or published for an unavailable device.
	if rows, _ := repo.ListRecent(ctx, 10); len(rows) != 0 {
		t.Errorf("persisted %d commands, want 0", len(rows))
	}
	if len(pub.messages) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.messages))
	}
}

func TestDispatcher_SubmitUnknownDevice(t *testing.T) {
	d, _ := newTestDispatcher(t, &stubPublisher{})

	_, err := d.Submit(context.Background(), "ghost", KindDispenseFood, 50, SourceAPI)
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("Submit() error = %v, want ErrDeviceUnavailable", err)
	}
}

func TestDispatcher_SubmitInvalid(t *testing.T) {
	pub := &stubPublisher{}
	d, repo := newTestDispatcher(t, pub)
	ctx := context.Background()

	_, err := d.Submit(ctx, "feeder-01", KindDispenseFood, -5, SourceAPI)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Submit() error = %v, want ErrValidation", err)
	}

	if rows, _ := repo.ListRecent(ctx, 10); len(rows) != 0 {
		t.Errorf("persisted %d commands, want 0", len(rows))
	}
}

func TestDispatcher_SubmitDeliveryFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker unreachable")}
	d, repo := newTestDispatcher(t, pub)
	ctx := context.Background()

	cmd, err := d.Submit(ctx, "feeder-01", KindDispenseFood, 50, SourceAPI)
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("Submit() error = %v, want ErrDeliveryFailed", err)
	}
	if cmd == nil {
		t.Fatal("Submit() should return the failed command")
	}

	stored, err := repo.GetByID(ctx, cmd.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != StatusFailed {
		t.Errorf("stored status = %q, want %q", stored.Status, StatusFailed)
	}
	if stored.Error == "" {
		t.Error("stored error message should carry the delivery failure")
	}
}

// ─── Safety gate ───

func TestDispatcher_SubmitDuringEmergencyStop(t *testing.T) {
	pub := &stubPublisher{}
	d, repo, ctrl := newGatedDispatcher(t, pub)
	ctx := context.Background()

	ctrl.EmergencyStop()

	_, err := d.Submit(ctx, "feeder-01", KindDispenseFood, 50, SourceAPI)
	if !errors.Is(err, actuator.ErrEmergencyStop) {
		t.Fatalf("Submit() error = %v, want ErrEmergencyStop", err)
	}

	// Nothing reaches storage or hardware while the stop is set.
	if rows, _ := repo.ListRecent(ctx, 10); len(rows) != 0 {
		t.Errorf("persisted %d commands, want 0", len(rows))
	}
	if len(pub.messages) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.messages))
	}

	ctrl.ResetEmergencyStop()
	if _, err := d.Submit(ctx, "feeder-01", KindDispenseFood, 50, SourceSchedule); err != nil {
		t.Fatalf("Submit() after reset error = %v", err)
	}
	if len(pub.messages) != 1 {
		t.Errorf("published %d messages after reset, want 1", len(pub.messages))
	}
}

func TestDispatcher_SubmitSafetyRejection(t *testing.T) {
	pub := &stubPublisher{}
	d, repo, ctrl := newGatedDispatcher(t, pub)
	ctx := context.Background()

	a, _ := ctrl.Get("feeder-01")
	a.Disable()

	_, err := d.Submit(ctx, "feeder-01", KindDispenseFood, 50, SourceAPI)

	var safety *actuator.SafetyError
	if !errors.As(err, &safety) {
		t.Fatalf("Submit() error = %v, want SafetyError", err)
	}
	if safety.Reason != "Actuator is disabled" {
		t.Errorf("Reason = %q, want the disabled reason", safety.Reason)
	}

	if rows, _ := repo.ListRecent(ctx, 10); len(rows) != 0 {
		t.Errorf("persisted %d commands, want 0", len(rows))
	}
	if len(pub.messages) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.messages))
	}
}

// ─── Out-of-band reconciliation ───

func TestDispatcher_HandleStatusReport(t *testing.T) {
	d, repo := newTestDispatcher(t, &stubPublisher{})
	ctx := context.Background()

	cmd, err := d.Submit(ctx, "feeder-01", KindDispenseFood, 50, SourceAPI)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	err = d.HandleStatusReport(ctx, StatusReport{DeviceID: "feeder-01", CommandID: cmd.ID, Success: true})
	if err != nil {
		t.Fatalf("HandleStatusReport() error = %v", err)
	}

	stored, _ := repo.GetByID(ctx, cmd.ID)
	if stored.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", stored.Status, StatusCompleted)
	}

	// A late failure report must not overwrite the terminal state.
	err = d.HandleStatusReport(ctx, StatusReport{DeviceID: "feeder-01", CommandID: cmd.ID, Success: false, Message: "jam"})
	if err != nil {
		t.Fatalf("HandleStatusReport() late report error = %v", err)
	}
	stored, _ = repo.GetByID(ctx, cmd.ID)
	if stored.Status != StatusCompleted {
		t.Errorf("Status after late report = %q, want %q", stored.Status, StatusCompleted)
	}
}

func TestDispatcher_HandleStatusReportFailure(t *testing.T) {
	d, repo := newTestDispatcher(t, &stubPublisher{})
	ctx := context.Background()

	cmd, err := d.Submit(ctx, "feeder-01", KindDispenseFood, 50, SourceAPI)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// Without an explicit command ID the report targets the device's
	// newest processing command.
	err = d.HandleStatusReport(ctx, StatusReport{DeviceID: "feeder-01", Success: false, Message: "hopper empty"})
	if err != nil {
		t.Fatalf("HandleStatusReport() error = %v", err)
	}

	stored, _ := repo.GetByID(ctx, cmd.ID)
	if stored.Status != StatusFailed {
		t.Errorf("Status = %q, want %q", stored.Status, StatusFailed)
	}
	if stored.Error != "hopper empty" {
		t.Errorf("Error = %q, want %q", stored.Error, "hopper empty")
	}
}

func TestDispatcher_HandleStatusReportNoProcessing(t *testing.T) {
	d, _ := newTestDispatcher(t, &stubPublisher{})

	err := d.HandleStatusReport(context.Background(), StatusReport{DeviceID: "feeder-01", Success: true})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("HandleStatusReport() error = %v, want ErrNotFound", err)
	}
}
