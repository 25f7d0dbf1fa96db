package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/petcarelabs/petcare-core/internal/command"
)

// Submitter hands a matched schedule's command to the dispatcher.
// Satisfied by *command.Dispatcher.
type Submitter interface {
	Submit(ctx context.Context, deviceID string, kind command.Kind, value float64, source command.Source) (*command.Command, error)
}

// Logger is the minimal logging interface the evaluator needs.
// Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Evaluator fires schedules on a fixed tick.
//
// Thread Safety:
//   - Run is started once; an in-flight guard skips a tick whose
//     predecessor is still evaluating rather than queueing it.
type Evaluator struct {
	repo      Repository
	submitter Submitter
	location  *time.Location
	tick      time.Duration
	logger    Logger

	inFlight atomic.Bool
}

// NewEvaluator creates an evaluator that matches schedules against
// local time in loc every tick. Pass nil for logger to disable
// evaluator logging.
func NewEvaluator(repo Repository, submitter Submitter, loc *time.Location, tick time.Duration, logger Logger) *Evaluator {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Evaluator{
		repo:      repo,
		submitter: submitter,
		location:  loc,
		tick:      tick,
		logger:    logger,
	}
}

// Run evaluates schedules every tick until ctx is cancelled.
func (e *Evaluator) Run(ctx context.Context) {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	e.logger.Info("schedule evaluator started", "tick", e.tick.String())
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("schedule evaluator stopped")
			return
		case now := <-ticker.C:
			e.evaluateTick(ctx, now)
		}
	}
}

// evaluateTick runs one evaluation unless the previous one is still
// in flight, in which case this tick is skipped, not queued.
func (e *Evaluator) evaluateTick(ctx context.Context, now time.Time) {
	if !e.inFlight.CompareAndSwap(false, true) {
		e.logger.Warn("schedule tick skipped, previous evaluation still running")
		return
	}
	defer e.inFlight.Store(false)

	e.EvaluateAt(ctx, now)
}

// EvaluateAt fires every enabled schedule whose weekday and HH:MM match
// the given instant in the evaluator's local time.
func (e *Evaluator) EvaluateAt(ctx context.Context, now time.Time) {
	local := now.In(e.location)

	schedules, err := e.repo.ListEnabled(ctx)
	if err != nil {
		e.logger.Warn("listing enabled schedules", "error", err)
		return
	}

	for i := range schedules {
		s := &schedules[i]
		if !s.MatchesAt(local) {
			continue
		}

		e.logger.Info("schedule fired",
			"schedule", s.ID, "device", s.DeviceID, "kind", s.Kind, "amount", s.Amount)

		// Delivery failure is not retried; the schedule re-fires on
		// its next matching minute.
		if _, err := e.submitter.Submit(ctx, s.DeviceID, s.Kind, s.Amount, command.SourceSchedule); err != nil {
			e.logger.Warn("scheduled command rejected",
				"schedule", s.ID, "device", s.DeviceID, "error", err)
			continue
		}

		if err := e.repo.MarkFired(ctx, s.ID, local); err != nil {
			e.logger.Warn("recording schedule firing", "schedule", s.ID, "error", err)
		}
	}
}
