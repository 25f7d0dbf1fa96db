// Package schedule implements recurring time-of-day rules that
// auto-generate commands.
//
// The evaluator runs on a fixed tick (one minute by default). A
// schedule fires only during the exact minute its time-of-day matches
// the current local time on a matching weekday. If a tick's evaluation
// is still running when the next tick is due, the next tick is skipped,
// not queued, so slow hardware delivery can never build a backlog.
//
// Weekdays are stored as a comma-separated list of integers with
// Monday as 0 and Sunday as 6.
package schedule
