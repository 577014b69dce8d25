package core

import "sync"

// DefaultQueueCapacity is the reference sizing for the outbound command
// queue. It is small on purpose: commands are human actions, and the link
// drains one per poll cycle.
const DefaultQueueCapacity = 8

// CommandQueue is a bounded FIFO ring buffer of outbound device commands.
// It decouples producers (HTTP handlers, the MQTT gateway, the input
// detector) from the single serialized device link.
//
// Push on a full queue fails explicitly and leaves the contents untouched;
// it never overwrites. Pop removes the oldest entry.
//
// Thread Safety: all methods are safe for concurrent use.
type CommandQueue struct {
	mu    sync.Mutex
	buf   []Command
	head  int
	count int
}

// NewCommandQueue creates a queue with the given capacity.
// A capacity below 1 falls back to DefaultQueueCapacity.
func NewCommandQueue(capacity int) *CommandQueue {
	if capacity < 1 {
		capacity = DefaultQueueCapacity
	}
	return &CommandQueue{buf: make([]Command, capacity)}
}

// Push appends cmd to the tail of the queue.
// Returns ErrQueueFull when at capacity.
func (q *CommandQueue) Push(cmd Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.buf) {
		return ErrQueueFull
	}
	q.buf[(q.head+q.count)%len(q.buf)] = cmd
	q.count++
	return nil
}

// Pop removes and returns the oldest pushed, not-yet-consumed command.
// The second return value is false when the queue is empty.
func (q *CommandQueue) Pop() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return Command{}, false
	}
	cmd := q.buf[q.head]
	q.buf[q.head] = Command{} // clear the slot
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return cmd, true
}

// Len returns the number of queued commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *CommandQueue) Cap() int {
	return len(q.buf)
}
