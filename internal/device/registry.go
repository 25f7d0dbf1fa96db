package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger is the minimal logging interface the registry needs.
// Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is provided.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Registry provides cached access to the device inventory.
//
// Reads are served from an in-memory cache; writes go through to the
// repository and update the cache on success. All returned devices are
// deep copies so callers can never mutate cached state.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Registry struct {
	repo   Repository
	logger Logger

	mu    sync.RWMutex
	cache map[string]*Device
}

// NewRegistry creates a registry over the given repository.
// Pass nil for logger to disable registry logging.
func NewRegistry(repo Repository, logger Logger) *Registry {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Registry{
		repo:   repo,
		logger: logger,
		cache:  make(map[string]*Device),
	}
}

// Load warms the cache from the repository.
// Call once at startup after migrations have run.
func (r *Registry) Load(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices into registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.cache[d.ID] = &d
	}

	r.logger.Debug("device registry loaded", "devices", len(devices))
	return nil
}

// Get returns the device with the given ID.
// Returns ErrDeviceNotFound if it does not exist.
func (r *Registry) Get(ctx context.Context, id string) (*Device, error) {
	r.mu.RLock()
	cached, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return cached.DeepCopy(), nil
	}

	// Cache miss: fall through to the repository (covers devices
	// created by another process sharing the database).
	device, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[device.ID] = device.DeepCopy()
	r.mu.Unlock()

	return device, nil
}

// List returns all devices sorted by the repository's ordering.
func (r *Registry) List(ctx context.Context) ([]Device, error) {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Device, len(devices))
	for i := range devices {
		out[i] = *devices[i].DeepCopy()
	}
	return out, nil
}

// ListByType returns all devices of the given type.
func (r *Registry) ListByType(ctx context.Context, t Type) ([]Device, error) {
	return r.repo.ListByType(ctx, t)
}

// Create persists a new device and adds it to the cache.
func (r *Registry) Create(ctx context.Context, device *Device) error {
	if err := r.repo.Create(ctx, device); err != nil {
		return err
	}

	r.mu.Lock()
	r.cache[device.ID] = device.DeepCopy()
	r.mu.Unlock()
	return nil
}

// Update persists device changes and refreshes the cache.
func (r *Registry) Update(ctx context.Context, device *Device) error {
	if err := r.repo.Update(ctx, device); err != nil {
		return err
	}

	r.mu.Lock()
	r.cache[device.ID] = device.DeepCopy()
	r.mu.Unlock()
	return nil
}

// Delete removes a device from the repository and the cache.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.cache, id)
	r.mu.Unlock()
	return nil
}

// MarkSeen records that a device reported at the given time,
// setting it online. Used by telemetry ingest and status handling.
func (r *Registry) MarkSeen(ctx context.Context, id string, seen time.Time) error {
	if err := r.repo.UpdatePresence(ctx, id, true, seen); err != nil {
		return err
	}

	r.mu.Lock()
	if d, ok := r.cache[id]; ok {
		s := seen
		d.Online = true
		d.LastSeen = &s
	}
	r.mu.Unlock()
	return nil
}

// MarkOffline flags a device as unreachable. The last-seen timestamp
// is preserved from the most recent report.
func (r *Registry) MarkOffline(ctx context.Context, id string) error {
	r.mu.RLock()
	cached, ok := r.cache[id]
	var lastSeen time.Time
	if ok && cached.LastSeen != nil {
		lastSeen = *cached.LastSeen
	}
	r.mu.RUnlock()

	if err := r.repo.UpdatePresence(ctx, id, false, lastSeen); err != nil {
		return err
	}

	r.mu.Lock()
	if d, ok := r.cache[id]; ok {
		d.Online = false
	}
	r.mu.Unlock()
	return nil
}

// IsOnline reports whether the device exists and is currently online.
func (r *Registry) IsOnline(ctx context.Context, id string) (bool, error) {
	device, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return device.Online, nil
}

// Count returns the number of cached devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
