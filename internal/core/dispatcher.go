package core

import (
	"context"
	"time"
)

// Dispatcher timing defaults.
const (
	// DefaultDispatchInterval is how often the dispatcher polls the dirty flag.
	DefaultDispatchInterval = 50 * time.Millisecond

	// DefaultWaiterTimeout is how long a waiter may sit in the registry
	// before it is evicted with a retry signal.
	DefaultWaiterTimeout = 30 * time.Second
)

// Logger is the minimal structured logging interface the core accepts.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Dispatcher observes the state store's dirty flag and fans changes out.
//
// Each cycle it takes the dirty flag; when set, it drains every registered
// waiter with the current snapshot and fires the change listeners. When
// clear, it evicts waiters older than the timeout with a distinct retry
// signal. A waiter therefore receives exactly one terminal notification.
type Dispatcher struct {
	store    *StateStore
	registry *WaiterRegistry

	interval      time.Duration
	waiterTimeout time.Duration

	listeners []func(DeviceState)
	logger    Logger
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Store    *StateStore
	Registry *WaiterRegistry

	// Interval between dirty-flag checks. Default: DefaultDispatchInterval.
	Interval time.Duration

	// WaiterTimeout before eviction. Default: DefaultWaiterTimeout.
	WaiterTimeout time.Duration

	// Logger is optional.
	Logger Logger
}

// NewDispatcher creates a dispatcher. Call Run to start it.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultDispatchInterval
	}
	timeout := opts.WaiterTimeout
	if timeout <= 0 {
		timeout = DefaultWaiterTimeout
	}
	return &Dispatcher{
		store:         opts.Store,
		registry:      opts.Registry,
		interval:      interval,
		waiterTimeout: timeout,
		logger:        opts.Logger,
	}
}

// AddListener registers a callback fired with the fresh snapshot on every
// state change. Listeners run on the dispatcher goroutine and must not
// block; anything slow should hand off internally (the websocket hub and the
// MQTT/telemetry writers already do). Not safe to call after Run.
func (d *Dispatcher) AddListener(fn func(DeviceState)) {
	d.listeners = append(d.listeners, fn)
}

// Run executes the notification loop until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Release anyone still parked so transports can answer before
			// shutdown completes.
			d.evictAll()
			return
		case <-ticker.C:
			d.cycle(time.Now())
		}
	}
}

// cycle performs one dispatch iteration. Split out for tests.
func (d *Dispatcher) cycle(now time.Time) {
	if d.store.TakeDirty() {
		snap := d.store.Snapshot()
		waiters := d.registry.DrainAll()
		for _, w := range waiters {
			w.deliver(Notification{Kind: NotifySnapshot, State: snap})
		}
		if len(waiters) > 0 && d.logger != nil {
			d.logger.Debug("state change delivered", "waiters", len(waiters))
		}
		for _, fn := range d.listeners {
			fn(snap)
		}
		return
	}

	for _, w := range d.registry.EvictOlderThan(now, d.waiterTimeout) {
		w.deliver(Notification{Kind: NotifyEvicted})
		if d.logger != nil {
			d.logger.Debug("waiter evicted", "waiter_id", w.ID().String())
		}
	}
}

// evictAll drains the registry with eviction signals during shutdown.
func (d *Dispatcher) evictAll() {
	for _, w := range d.registry.DrainAll() {
		w.deliver(Notification{Kind: NotifyEvicted})
	}
}
