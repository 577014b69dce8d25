package core

import "errors"

// Domain errors for the coordination core.
var (
	// ErrQueueFull is returned when a command is pushed onto a queue that is
	// already at capacity. The caller decides whether and when to retry; the
	// queue contents are untouched.
	ErrQueueFull = errors.New("core: command queue full")

	// ErrRegistryFull is returned when a long-poll waiter is registered while
	// the registry is at capacity. The caller must answer its request
	// originator with an explicit "try again" signal.
	ErrRegistryFull = errors.New("core: waiter registry full")
)
