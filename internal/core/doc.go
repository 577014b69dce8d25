// Package core holds the coordination structures shared by every task in the
// control node: the canonical monitor state snapshot, the bounded outbound
// command queue, the bounded long-poll waiter registry, and the notification
// dispatcher that fans state changes out to waiters.
//
// The structures are deliberately small and lock-scoped: no method performs
// I/O or blocks while holding its lock, so producers (HTTP handlers, the MQTT
// gateway, the input detector) and the single device link can interleave
// freely without deadlock.
package core
