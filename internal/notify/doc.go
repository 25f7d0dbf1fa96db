// Package notify implements the outbound notification queue.
//
// Producers (telemetry threshold checks, presence tracking, actuator
// faults) append events without blocking: the queue is bounded and an
// event that arrives while it is full is dropped with a warning rather
// than stalling the producer. A single consumer goroutine persists
// events to SQLite and hands them to an optional broadcast sink.
package notify
