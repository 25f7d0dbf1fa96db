// Package actuator implements the actuator safety state machine and the
// fleet controller for PetCare Core.
//
// # State machine
//
//	           activate                 duration elapses / deactivate
//	  Idle ──────────────▶ Active ─────────────────────────────▶ Idle
//	   │                      │
//	   │ set_error            │ set_error
//	   ▼                      ▼
//	 Error ◀──────────────────┘          clear_error ─▶ Idle
//
//	 Maintenance and Disabled are entered from any state (forcing
//	 deactivation first) and leave back to Idle.
//
// Every activation passes a five-step safety gate evaluated in a fixed
// order: disabled, error, maintenance, cooldown, daily cap. The first
// failing check short-circuits with its reason string, which callers
// surface verbatim. This ordering is a contract.
//
// # Tuning
//
// Each actuator kind carries tuning constants: dispensing rate, maximum
// activation time, cooldown, daily cap, nominal power consumption, and
// (for heaters) a hard power ceiling of 0.7.
//
// # Controller
//
// Controller is the fleet registry. It owns the emergency-stop flag:
// while set, every activation is rejected before the actuator's own
// safety gate runs, and triggering it force-deactivates the whole
// fleet. The flag is read under the same lock that guards its
// mutation.
//
// Thread Safety: each Actuator serialises its own transitions with a
// per-actuator mutex; the Controller never holds a cross-actuator lock
// on the activation path, so a slow actuator cannot stall the rest of
// the fleet.
package actuator
