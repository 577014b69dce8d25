// Package api provides the HTTP REST API and WebSocket server for bvmctl.
//
// This package provides:
//   - REST endpoints for monitor state, long-poll waits, and commands
//   - WebSocket hub for real-time state change broadcasts
//   - State history queries backed by the SQLite journal
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API server sits between clients and the coordination core. Commands
// are validated and pushed onto the bounded queue; the device link drains
// them. State reads come from the state store, and change notifications
// arrive through the waiter registry and dispatcher listeners.
//
// # Graceful Degradation
//
// The server operates without MQTT, telemetry, or the history journal -
// the corresponding endpoints and metrics sections degrade individually.
package api
