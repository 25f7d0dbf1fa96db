package actuator

import (
	"fmt"
	"sync"
	"time"

	"github.com/petcarelabs/petcare-core/internal/device"
)

// Actuator is the safety state machine for a single controllable device.
//
// Thread Safety:
//   - All methods are safe for concurrent use; a per-actuator mutex
//     serialises every transition. No lock is shared across actuators.
type Actuator struct {
	id   string
	name string
	kind device.Type

	tuning Tuning

	// now is the clock; replaced in tests.
	now func() time.Time

	mu               sync.Mutex
	state            State
	connected        bool
	currentPower     float64
	activationCount  int
	dailyCount       int
	dailyResetTime   time.Time
	lastActivated    time.Time
	lastDeactivation time.Time
	errorMessage     string

	// seq identifies the current activation so a stale auto-deactivate
	// timer from an earlier activation cannot cut a later one short.
	seq   uint64
	timer *time.Timer
}

// New creates an actuator in the Idle state with the tuning for its kind.
// Returns ErrInvalidKind for device types that do not accept commands.
func New(id, name string, kind device.Type) (*Actuator, error) {
	if !kind.IsActuator() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}

	now := time.Now()
	return &Actuator{
		id:             id,
		name:           name,
		kind:           kind,
		tuning:         tuningFor(kind),
		now:            time.Now,
		state:          StateIdle,
		dailyResetTime: now,
	}, nil
}

// ID returns the actuator's device identifier.
func (a *Actuator) ID() string { return a.id }

// Name returns the actuator's display name.
func (a *Actuator) Name() string { return a.name }

// Kind returns the actuator's device type.
func (a *Actuator) Kind() device.Type { return a.kind }

// Tuning returns the safety tuning for this actuator's kind.
func (a *Actuator) Tuning() Tuning { return a.tuning }

// SafeToActivate reports whether the safety gate would pass right now.
// On rejection the returned reason matches what Activate would carry in
// its SafetyError.
func (a *Actuator) SafeToActivate() (bool, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.safeToActivateLocked()
}

// safeToActivateLocked evaluates the safety gate. The check order is a
// contract: disabled, error, maintenance, cooldown, daily cap.
func (a *Actuator) safeToActivateLocked() (bool, string) {
	if a.state == StateDisabled {
		return false, "Actuator is disabled"
	}
	if a.state == StateError {
		return false, fmt.Sprintf("Actuator is in error state: %s", a.errorMessage)
	}
	if a.state == StateMaintenance {
		return false, "Actuator is in maintenance mode"
	}

	if !a.lastDeactivation.IsZero() {
		elapsed := a.now().Sub(a.lastDeactivation).Seconds()
		if elapsed < a.tuning.MinCooldownTime {
			remaining := a.tuning.MinCooldownTime - elapsed
			return false, fmt.Sprintf("Cooldown period not complete, wait %.1f seconds", remaining)
		}
	}

	a.maybeResetDailyLocked()
	if a.dailyCount >= a.tuning.MaxActivationsPerDay {
		return false, fmt.Sprintf("Daily activation limit of %d reached", a.tuning.MaxActivationsPerDay)
	}

	return true, ""
}

// maybeResetDailyLocked zeroes the daily counter once the rolling
// 24-hour window since the last reset has fully elapsed.
func (a *Actuator) maybeResetDailyLocked() {
	if a.now().Sub(a.dailyResetTime).Seconds() > dailyWindowSeconds {
		a.dailyCount = 0
		a.dailyResetTime = a.now()
	}
}

// Activate runs the safety gate and, if it passes, drives the actuator
// for the given duration at the given power level.
//
// Power is capped at the kind's ceiling and then clamped to [0.1, 1.0].
// A nil, non-positive, or over-limit duration falls back to the kind's
// maximum activation time. The actuator stays Active until the duration
// elapses or Deactivate is called, whichever comes first.
//
// Returns a SafetyError when the gate rejects the request.
func (a *Actuator) Activate(power float64, duration *float64) (Activation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ok, reason := a.safeToActivateLocked(); !ok {
		return Activation{}, &SafetyError{Reason: reason}
	}

	if power > a.tuning.MaxPower {
		power = a.tuning.MaxPower
	}
	if power < 0.1 {
		power = 0.1
	}
	if power > 1.0 {
		power = 1.0
	}

	dur := a.tuning.MaxActivationTime
	if duration != nil && *duration > 0 && *duration < a.tuning.MaxActivationTime {
		dur = *duration
	}

	now := a.now()
	a.state = StateActive
	a.currentPower = power
	a.lastActivated = now
	a.activationCount++
	a.dailyCount++

	result := Activation{Power: power, Duration: dur}
	if a.tuning.DispensingRate > 0 {
		result.Amount = a.tuning.DispensingRate * power * dur
	}
	if a.tuning.PowerConsumption > 0 {
		result.EnergyWh = a.tuning.PowerConsumption * power * (dur / 3600.0)
	}

	a.seq++
	seq := a.seq
	a.timer = time.AfterFunc(time.Duration(dur*float64(time.Second)), func() {
		a.autoDeactivate(seq)
	})

	return result, nil
}

// autoDeactivate ends the activation identified by seq. A stale timer
// whose activation has already ended is a no-op.
func (a *Actuator) autoDeactivate(seq uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateActive || a.seq != seq {
		return
	}
	a.deactivateLocked()
}

// Deactivate ends the current activation and starts the cooldown.
// Deactivating an actuator that is not active is a successful no-op.
func (a *Actuator) Deactivate() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateActive {
		return
	}
	a.deactivateLocked()
}

func (a *Actuator) deactivateLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.state = StateIdle
	a.currentPower = 0
	a.lastDeactivation = a.now()
}

// Connect marks the actuator reachable.
func (a *Actuator) Connect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = true
}

// Disconnect deactivates the actuator if needed and marks it unreachable.
func (a *Actuator) Disconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateActive {
		a.deactivateLocked()
	}
	a.connected = false
}

// Connected reports whether the actuator is currently reachable.
func (a *Actuator) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// Enable returns a disabled actuator to Idle.
// Enabling an actuator in any other state is a no-op.
func (a *Actuator) Enable() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateDisabled {
		a.state = StateIdle
	}
}

// Disable deactivates the actuator if needed and takes it out of service.
func (a *Actuator) Disable() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateActive {
		a.deactivateLocked()
	}
	a.state = StateDisabled
}

// SetMaintenance enters or leaves maintenance mode. Entering forces a
// deactivation first; leaving only applies when the actuator is
// actually in maintenance.
func (a *Actuator) SetMaintenance(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if on {
		if a.state == StateActive {
			a.deactivateLocked()
		}
		a.state = StateMaintenance
		return
	}

	if a.state == StateMaintenance {
		a.state = StateIdle
	}
}

// SetError records a fault and moves the actuator to the Error state.
// An active actuator is deactivated first.
func (a *Actuator) SetError(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateActive {
		a.deactivateLocked()
	}
	a.state = StateError
	a.errorMessage = message
}

// ClearError returns an errored actuator to Idle. Clearing an actuator
// that is not in the Error state is a no-op.
func (a *Actuator) ClearError() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateError {
		a.state = StateIdle
		a.errorMessage = ""
	}
}

// State returns the current lifecycle state.
func (a *Actuator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Status returns a point-in-time snapshot.
func (a *Actuator) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Status{
		ID:              a.id,
		Name:            a.name,
		Kind:            a.kind,
		State:           a.state,
		Connected:       a.connected,
		CurrentPower:    a.currentPower,
		ActivationCount: a.activationCount,
		DailyCount:      a.dailyCount,
		ErrorMessage:    a.errorMessage,
	}
	if !a.lastActivated.IsZero() {
		t := a.lastActivated
		s.LastActivated = &t
	}
	return s
}
