// Package monitor implements the device side of the control node: the
// line-oriented command/response protocol spoken by the broadcast monitor,
// command validation and encoding, and the Link state machine that owns the
// single connection and runs the connect/poll/drain loop.
//
// The protocol is half-duplex and strictly request/response; the Link is the
// only writer, so at most one command is in flight at any time.
package monitor
