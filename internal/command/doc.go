// Package command implements the command lifecycle and the dispatcher
// that hands server-issued intents to hardware.
//
// A Command moves through pending → processing → completed|failed.
// Submit persists the pending record before attempting delivery (write
// before acknowledge), publishes the wire payload with a bounded
// timeout, and marks the record processing on acknowledgment or failed
// on delivery error. Completion is reconciled out-of-band: a device
// status report transitions a record that is still processing to its
// terminal state; reports arriving after the record has left
// processing are ignored, so the publish acknowledgment is always
// ordered before the device's own status report.
//
// The hardware wire format is a single ASCII command letter followed
// immediately by the numeric value: F<grams>, W<millilitres>,
// T<celsius>. The value passes through unmodified; range clamping is
// the actuator's job, not the dispatcher's.
package command
