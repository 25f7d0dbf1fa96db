package actuator

import (
	"errors"
	"testing"

	"github.com/petcarelabs/petcare-core/internal/device"
)

func newTestController(t *testing.T, ids ...string) *Controller {
	t.Helper()

	c := NewController(nil)
	for _, id := range ids {
		a, err := New(id, "Actuator "+id, device.TypeFan)
		if err != nil {
			t.Fatalf("New(%s) error = %v", id, err)
		}
		a.tuning.MinCooldownTime = 0
		if err := c.Register(a); err != nil {
			t.Fatalf("Register(%s) error = %v", id, err)
		}
	}
	return c
}

func TestController_RegisterDuplicate(t *testing.T) {
	c := newTestController(t, "fan-01")

	a, err := New("fan-01", "Duplicate", device.TypeFan)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Register(a); !errors.Is(err, ErrExists) {
		t.Errorf("Register() duplicate error = %v, want ErrExists", err)
	}
}

func TestController_UnregisterDeactivates(t *testing.T) {
	c := newTestController(t, "fan-01")

	if _, err := c.Activate("fan-01", 0.5, floatPtr(60.0)); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	a, _ := c.Get("fan-01")
	if err := c.Unregister("fan-01"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	if a.State() != StateIdle {
		t.Errorf("unregistered actuator state = %q, want %q", a.State(), StateIdle)
	}

	if err := c.Unregister("fan-01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unregister() repeated error = %v, want ErrNotFound", err)
	}
}

func TestController_ActivateUnknown(t *testing.T) {
	c := newTestController(t)

	if _, err := c.Activate("ghost", 1.0, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Activate() unknown error = %v, want ErrNotFound", err)
	}
}

func TestController_EmergencyStop(t *testing.T) {
	c := newTestController(t, "fan-01", "fan-02")

	if _, err := c.Activate("fan-01", 0.5, floatPtr(60.0)); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	c.EmergencyStop()

	if !c.EmergencyStopActive() {
		t.Error("EmergencyStopActive() = false after stop")
	}
	if len(c.Active()) != 0 {
		t.Errorf("Active() = %d actuators after stop, want 0", len(c.Active()))
	}

	// While stopped, every activation is rejected before the safety gate.
	if _, err := c.Activate("fan-02", 0.5, nil); !errors.Is(err, ErrEmergencyStop) {
		t.Errorf("Activate() during stop error = %v, want ErrEmergencyStop", err)
	}

	c.ResetEmergencyStop()
	if _, err := c.Activate("fan-02", 0.5, floatPtr(60.0)); err != nil {
		t.Errorf("Activate() after reset error = %v, want nil", err)
	}
}

func TestController_SafeToDispatch(t *testing.T) {
	c := newTestController(t, "fan-01")

	if err := c.SafeToDispatch("fan-01"); err != nil {
		t.Fatalf("SafeToDispatch() error = %v, want nil", err)
	}

	// Devices without a registered actuator pass the gate.
	if err := c.SafeToDispatch("sensor-01"); err != nil {
		t.Errorf("SafeToDispatch() unregistered error = %v, want nil", err)
	}

	// The actuator's own gate rejects with its reason.
	a, _ := c.Get("fan-01")
	a.Disable()
	var safety *SafetyError
	if err := c.SafeToDispatch("fan-01"); !errors.As(err, &safety) {
		t.Fatalf("SafeToDispatch() disabled error = %v, want SafetyError", err)
	} else if safety.Reason != "Actuator is disabled" {
		t.Errorf("Reason = %q, want the disabled reason", safety.Reason)
	}
	a.Enable()

	// The fleet stop rejects everything, registered or not.
	c.EmergencyStop()
	if err := c.SafeToDispatch("fan-01"); !errors.Is(err, ErrEmergencyStop) {
		t.Errorf("SafeToDispatch() during stop error = %v, want ErrEmergencyStop", err)
	}
	if err := c.SafeToDispatch("sensor-01"); !errors.Is(err, ErrEmergencyStop) {
		t.Errorf("SafeToDispatch() unregistered during stop error = %v, want ErrEmergencyStop", err)
	}
}

func TestController_ErroredAndResetErrors(t *testing.T) {
	c := newTestController(t, "fan-01", "fan-02")

	a, _ := c.Get("fan-01")
	a.SetError("motor stalled")

	errored := c.Errored()
	if len(errored) != 1 || errored[0].ID != "fan-01" {
		t.Fatalf("Errored() = %v, want fan-01 only", errored)
	}

	cleared := c.ResetErrors()
	if len(cleared) != 1 || cleared[0] != "fan-01" {
		t.Errorf("ResetErrors() = %v, want [fan-01]", cleared)
	}
	if len(c.Errored()) != 0 {
		t.Error("Errored() should be empty after reset")
	}
}

func TestController_ConnectAndDisconnectAll(t *testing.T) {
	c := newTestController(t, "fan-01", "fan-02")

	if failed := c.ConnectAll(); len(failed) != 0 {
		t.Errorf("ConnectAll() failed = %v, want none", failed)
	}

	if _, err := c.Activate("fan-01", 0.5, floatPtr(60.0)); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	c.DisconnectAll()
	for _, id := range []string{"fan-01", "fan-02"} {
		a, _ := c.Get(id)
		if a.Connected() {
			t.Errorf("%s still connected after DisconnectAll", id)
		}
		if a.State() != StateIdle {
			t.Errorf("%s state = %q after DisconnectAll, want %q", id, a.State(), StateIdle)
		}
	}
}

func TestController_Statuses(t *testing.T) {
	c := newTestController(t, "fan-01", "fan-02", "fan-03")

	if got := len(c.Statuses()); got != 3 {
		t.Errorf("Statuses() = %d entries, want 3", got)
	}
	if c.Count() != 3 {
		t.Errorf("Count() = %d, want 3", c.Count())
	}
}
