package actuator

import (
	"sync"
)

// Logger is the minimal logging interface the controller needs.
// Compatible with logging.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Controller is the fleet-wide actuator registry and the owner of the
// emergency-stop flag.
//
// Thread Safety:
//   - A single RWMutex guards both the registry map and the
//     emergency-stop flag, so a flag read and the map lookup happen in
//     the same exclusion domain as flag mutation.
//   - Activation holds only the read lock, so activations on different
//     actuators proceed concurrently while EmergencyStop excludes them
//     all before flipping the flag.
type Controller struct {
	logger Logger

	mu        sync.RWMutex
	actuators map[string]*Actuator
	stopped   bool
}

// NewController creates an empty controller.
// Pass nil for logger to disable controller logging.
func NewController(logger Logger) *Controller {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Controller{
		logger:    logger,
		actuators: make(map[string]*Actuator),
	}
}

// Register adds an actuator to the fleet.
// Returns ErrExists if the ID is already registered.
func (c *Controller) Register(a *Actuator) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.actuators[a.ID()]; ok {
		return ErrExists
	}
	c.actuators[a.ID()] = a
	return nil
}

// Unregister removes an actuator from the fleet, deactivating it first.
// Returns ErrNotFound if the ID is not registered.
func (c *Controller) Unregister(id string) error {
	c.mu.Lock()
	a, ok := c.actuators[id]
	if ok {
		delete(c.actuators, id)
	}
	c.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	a.Deactivate()
	return nil
}

// Get returns the actuator with the given ID.
func (c *Controller) Get(id string) (*Actuator, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.actuators[id]
	return a, ok
}

// Activate drives the actuator with the given ID.
//
// The emergency-stop flag is checked before the actuator's own safety
// gate; while it is set every activation is rejected unconditionally
// with ErrEmergencyStop.
func (c *Controller) Activate(id string, power float64, duration *float64) (Activation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.stopped {
		return Activation{}, ErrEmergencyStop
	}

	a, ok := c.actuators[id]
	if !ok {
		return Activation{}, ErrNotFound
	}
	return a.Activate(power, duration)
}

// SafeToDispatch vets a hardware command for the named device before
// anything is published. The fleet emergency stop rejects every
// dispatch; a registered actuator additionally runs its own safety
// gate and a rejection carries the gate's reason. Devices with no
// registered actuator pass.
func (c *Controller) SafeToDispatch(id string) error {
	c.mu.RLock()
	stopped := c.stopped
	a := c.actuators[id]
	c.mu.RUnlock()

	if stopped {
		return ErrEmergencyStop
	}
	if a == nil {
		return nil
	}
	if ok, reason := a.SafeToActivate(); !ok {
		return &SafetyError{Reason: reason}
	}
	return nil
}

// Deactivate ends the named actuator's activation.
func (c *Controller) Deactivate(id string) error {
	a, ok := c.Get(id)
	if !ok {
		return ErrNotFound
	}
	a.Deactivate()
	return nil
}

// EmergencyStop sets the fleet-wide stop flag and force-deactivates
// every actuator. New activations are rejected until the flag is
// explicitly reset.
func (c *Controller) EmergencyStop() {
	c.mu.Lock()
	c.stopped = true
	fleet := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Warn("emergency stop triggered", "actuators", len(fleet))
	for _, a := range fleet {
		a.Deactivate()
	}
}

// ResetEmergencyStop clears the stop flag, allowing activations again.
func (c *Controller) ResetEmergencyStop() {
	c.mu.Lock()
	c.stopped = false
	c.mu.Unlock()

	c.logger.Info("emergency stop reset")
}

// EmergencyStopActive reports whether the stop flag is set.
func (c *Controller) EmergencyStopActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stopped
}

// ConnectAll marks every actuator reachable and returns the IDs that
// failed to connect.
func (c *Controller) ConnectAll() []string {
	var failed []string
	for _, a := range c.snapshot() {
		a.Connect()
		if !a.Connected() {
			failed = append(failed, a.ID())
		}
	}
	return failed
}

// DisconnectAll deactivates and disconnects every actuator.
func (c *Controller) DisconnectAll() {
	for _, a := range c.snapshot() {
		a.Disconnect()
	}
}

// Active returns snapshots of every actuator currently driving output.
func (c *Controller) Active() []Status {
	return c.filter(func(s Status) bool { return s.State == StateActive })
}

// Errored returns snapshots of every actuator in the Error state.
func (c *Controller) Errored() []Status {
	return c.filter(func(s Status) bool { return s.State == StateError })
}

// Statuses returns snapshots of the whole fleet.
func (c *Controller) Statuses() []Status {
	return c.filter(func(Status) bool { return true })
}

// ResetErrors clears the Error state across the fleet and returns the
// IDs that were cleared.
func (c *Controller) ResetErrors() []string {
	var cleared []string
	for _, a := range c.snapshot() {
		if a.State() == StateError {
			a.ClearError()
			cleared = append(cleared, a.ID())
		}
	}
	return cleared
}

// Count returns the number of registered actuators.
func (c *Controller) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.actuators)
}

func (c *Controller) filter(keep func(Status) bool) []Status {
	var out []Status
	for _, a := range c.snapshot() {
		if s := a.Status(); keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func (c *Controller) snapshot() []*Actuator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() []*Actuator {
	out := make([]*Actuator, 0, len(c.actuators))
	for _, a := range c.actuators {
		out = append(out, a)
	}
	return out
}
