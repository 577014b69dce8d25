package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultWaiterCapacity is the reference sizing for the long-poll registry.
const DefaultWaiterCapacity = 4

// NotificationKind discriminates the two terminal signals a waiter can
// receive. Every registered waiter receives exactly one of them.
type NotificationKind uint8

// Notification kinds.
const (
	// NotifySnapshot carries a fresh state snapshot after a change.
	NotifySnapshot NotificationKind = iota

	// NotifyEvicted tells the waiter it timed out and must re-register.
	NotifyEvicted
)

// Notification is the terminal signal delivered to a waiter.
type Notification struct {
	Kind  NotificationKind
	State DeviceState // meaningful for NotifySnapshot only
}

// Waiter is one registered long-poll observer. The transport that created it
// blocks on Wait(); the dispatcher delivers through the registry.
type Waiter struct {
	id         uuid.UUID
	ch         chan Notification
	enqueuedAt time.Time
}

// ID returns the waiter's identity, used for log correlation.
func (w *Waiter) ID() uuid.UUID {
	return w.id
}

// Wait returns the channel the terminal notification arrives on.
// The channel is buffered, so delivery never blocks the dispatcher even when
// the waiting transport has already gone away.
func (w *Waiter) Wait() <-chan Notification {
	return w.ch
}

func (w *Waiter) deliver(n Notification) {
	select {
	case w.ch <- n:
	default:
		// Already delivered. Cannot happen while removal from the registry
		// is atomic, but a stray second send must not block or panic.
	}
}

// WaiterRegistry is the bounded set of long-poll observers waiting for the
// next state change. Waiters leave the registry exactly once: either drained
// on a change or evicted by timeout, never both.
//
// Thread Safety: all methods are safe for concurrent use.
type WaiterRegistry struct {
	mu      sync.Mutex
	waiters []*Waiter // arrival order
	cap     int
}

// NewWaiterRegistry creates a registry with the given capacity.
// A capacity below 1 falls back to DefaultWaiterCapacity.
func NewWaiterRegistry(capacity int) *WaiterRegistry {
	if capacity < 1 {
		capacity = DefaultWaiterCapacity
	}
	return &WaiterRegistry{
		waiters: make([]*Waiter, 0, capacity),
		cap:     capacity,
	}
}

// Register creates a waiter stamped with now and adds it to the registry.
// Returns ErrRegistryFull at capacity; the caller must surface that to its
// request originator as an explicit retry signal.
func (r *WaiterRegistry) Register(now time.Time) (*Waiter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.waiters) >= r.cap {
		return nil, ErrRegistryFull
	}
	w := &Waiter{
		id:         uuid.New(),
		ch:         make(chan Notification, 1),
		enqueuedAt: now,
	}
	r.waiters = append(r.waiters, w)
	return w, nil
}

// DrainAll atomically empties the registry and returns every waiter in
// arrival order. Called when the state is dirty.
func (r *WaiterRegistry) DrainAll() []*Waiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	drained := r.waiters
	r.waiters = make([]*Waiter, 0, r.cap)
	return drained
}

// EvictOlderThan removes and returns, in arrival order, every waiter whose
// enqueue time precedes now-timeout. Newer waiters are untouched. Called only
// when nothing is dirty, so eviction and change delivery never race on the
// same waiter.
func (r *WaiterRegistry) EvictOlderThan(now time.Time, timeout time.Duration) []*Waiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-timeout)
	var evicted []*Waiter
	kept := r.waiters[:0]
	for _, w := range r.waiters {
		if w.enqueuedAt.Before(cutoff) {
			evicted = append(evicted, w)
		} else {
			kept = append(kept, w)
		}
	}
	// Clear trailing slots so evicted waiters are not retained by the backing array.
	for i := len(kept); i < len(r.waiters); i++ {
		r.waiters[i] = nil
	}
	r.waiters = kept
	return evicted
}

// Len returns the number of registered waiters.
func (r *WaiterRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}
