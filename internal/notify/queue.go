package notify

import (
	"context"
	"sync"
)

// defaultCapacity bounds the queue; producers never block on a full
// queue, the event is dropped instead.
const defaultCapacity = 256

// Logger is the minimal logging interface the queue needs.
// Compatible with logging.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Broadcast receives each persisted notification, typically to push it
// to connected websocket clients. It must not block.
type Broadcast func(n Notification)

// Queue is the bounded fire-and-forget notification pipeline.
//
// Thread Safety:
//   - Publish is safe for concurrent use from any goroutine.
//   - Run is started once and owns persistence ordering.
type Queue struct {
	repo   Repository
	logger Logger
	events chan Notification

	mu        sync.RWMutex
	broadcast Broadcast
}

// NewQueue creates a queue with the given capacity; capacity <= 0 uses
// the default. Pass nil for logger to disable queue logging.
func NewQueue(repo Repository, capacity int, logger Logger) *Queue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Queue{
		repo:   repo,
		logger: logger,
		events: make(chan Notification, capacity),
	}
}

// SetBroadcast installs the sink invoked after each event is persisted.
// Safe to call while Run is consuming.
func (q *Queue) SetBroadcast(b Broadcast) {
	q.mu.Lock()
	q.broadcast = b
	q.mu.Unlock()
}

// Publish appends an event without blocking. When the queue is full the
// event is dropped with a warning; a notification is never worth
// stalling the state change that raised it.
func (q *Queue) Publish(n Notification) {
	select {
	case q.events <- n:
	default:
		q.logger.Warn("notification queue full, event dropped",
			"kind", n.Kind, "device", n.DeviceID)
	}
}

// Run consumes events until ctx is cancelled, draining what remains in
// the queue before returning.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			q.drain()
			return
		case n := <-q.events:
			q.deliver(ctx, n)
		}
	}
}

// drain persists queued events during shutdown. Uses a background
// context because the run context is already cancelled.
func (q *Queue) drain() {
	for {
		select {
		case n := <-q.events:
			q.deliver(context.Background(), n)
		default:
			return
		}
	}
}

// deliver persists and broadcasts one event. A persistence failure is
// logged and the event is still broadcast; delivery is best-effort.
func (q *Queue) deliver(ctx context.Context, n Notification) {
	if err := q.repo.Create(ctx, &n); err != nil {
		q.logger.Error("persisting notification", "id", n.ID, "error", err)
	}

	q.mu.RLock()
	broadcast := q.broadcast
	q.mu.RUnlock()
	if broadcast != nil {
		broadcast(n)
	}
}

// Pending returns the number of queued, not yet persisted events.
func (q *Queue) Pending() int {
	return len(q.events)
}
