package monitor

import "errors"

// Domain errors for the monitor package.
var (
	// ErrPayloadTooLong is returned when a command payload exceeds the
	// protocol's fixed payload bound. Checked before any bytes are built.
	ErrPayloadTooLong = errors.New("monitor: payload exceeds frame bound")

	// ErrInvalidFrame is returned when a received frame fails magic or
	// length validation. Fatal for the session: a fixed-size protocol
	// cannot resynchronise after a framing error.
	ErrInvalidFrame = errors.New("monitor: invalid frame")

	// ErrInvalidStatus is returned when a status response carries bytes
	// outside the nibble-digit range.
	ErrInvalidStatus = errors.New("monitor: invalid status response")

	// ErrUnknownButton is returned when a toggle command names a button the
	// monitor does not have.
	ErrUnknownButton = errors.New("monitor: unknown button")

	// ErrUnknownKnob is returned when a knob command names an unknown knob.
	ErrUnknownKnob = errors.New("monitor: unknown knob")

	// ErrInvalidCommand is returned for malformed command parameters
	// (zero factor/ticks, bad direction, out-of-range info code). Rejected
	// before the command enters the queue; no state is mutated.
	ErrInvalidCommand = errors.New("monitor: invalid command")

	// ErrHardwareAbsent is returned when the configured network interface
	// does not exist at startup. This is the one unrecoverable condition:
	// the process must halt with a visible fault rather than proceed.
	ErrHardwareAbsent = errors.New("monitor: network hardware absent")
)

// errNetworkDown signals the serve loop that the physical link layer went
// away mid-session. Internal: Run translates it into a teardown + wait.
var errNetworkDown = errors.New("monitor: network link down")
