package monitor

import (
	"fmt"
	"strconv"

	"github.com/nerrad567/bvmctl/internal/core"
)

// toggleButtons is the set of front-panel toggles the monitor accepts in a
// TOGGLEbutton command.
var toggleButtons = map[string]struct{}{
	"POWER":       {},
	"SCANMODE":    {},
	"HDELAY":      {},
	"VDELAY":      {},
	"MONOCHROME":  {},
	"CHARMUTE":    {},
	"MARKER":      {},
	"EXTSYNC":     {},
	"APERTURE":    {},
	"CHROMAUP":    {},
	"ASPECT":      {},
	"COLTEMP":     {},
	"COMB":        {},
	"BLUEONLY":    {},
	"RCUTOFF":     {},
	"GCUTOFF":     {},
	"BCUTOFF":     {},
	"MANPHASE":    {},
	"MANCHROMA":   {},
	"MANBRIGHT":   {},
	"MANCONTRAST": {},
}

// knobs is the set of rotary adjustment channels.
var knobs = map[string]struct{}{
	"PHASE":    {},
	"CHROMA":   {},
	"BRIGHT":   {},
	"CONTRAST": {},
}

// Knob command parameter bounds. Factor scales the step size; ticks is the
// number of detents in a single command.
const (
	minKnobFactor = 1
	maxKnobFactor = 99
	minKnobTicks  = 1
	maxKnobTicks  = 99
)

// Info command code range.
const (
	minInfoCode = 0
	maxInfoCode = 99
)

// NewToggleCommand validates a button name and builds a toggle command.
func NewToggleCommand(button string) (core.Command, error) {
	if _, ok := toggleButtons[button]; !ok {
		return core.Command{}, fmt.Errorf("%w: %q", ErrUnknownButton, button)
	}
	return core.Command{Kind: core.CommandToggle, Button: button}, nil
}

// NewInfoCommand validates an info page code and builds an info command.
func NewInfoCommand(code int) (core.Command, error) {
	if code < minInfoCode || code > maxInfoCode {
		return core.Command{}, fmt.Errorf("%w: info code %d out of range %d..%d",
			ErrInvalidCommand, code, minInfoCode, maxInfoCode)
	}
	return core.Command{Kind: core.CommandInfo, Code: code}, nil
}

// NewKnobCommand validates knob adjustment parameters and builds a knob
// command. Rejection happens here, before the command can enter the queue.
func NewKnobCommand(knob string, dir core.Direction, factor, ticks int) (core.Command, error) {
	if _, ok := knobs[knob]; !ok {
		return core.Command{}, fmt.Errorf("%w: %q", ErrUnknownKnob, knob)
	}
	if dir != core.Forward && dir != core.Reverse {
		return core.Command{}, fmt.Errorf("%w: bad direction", ErrInvalidCommand)
	}
	if factor < minKnobFactor || factor > maxKnobFactor {
		return core.Command{}, fmt.Errorf("%w: factor %d out of range %d..%d",
			ErrInvalidCommand, factor, minKnobFactor, maxKnobFactor)
	}
	if ticks < minKnobTicks || ticks > maxKnobTicks {
		return core.Command{}, fmt.Errorf("%w: ticks %d out of range %d..%d",
			ErrInvalidCommand, ticks, minKnobTicks, maxKnobTicks)
	}
	return core.Command{
		Kind:      core.CommandKnob,
		Knob:      knob,
		Direction: dir,
		Factor:    factor,
		Ticks:     ticks,
	}, nil
}

// ParseDirection maps a direction token to a Direction. The wire tokens
// "+" and "-" are accepted alongside the spelled-out "forward" and
// "reverse" so API and MQTT clients need not know the device encoding.
func ParseDirection(s string) (core.Direction, error) {
	switch s {
	case "+", "forward":
		return core.Forward, nil
	case "-", "reverse":
		return core.Reverse, nil
	default:
		return core.Forward, fmt.Errorf("%w: direction %q", ErrInvalidCommand, s)
	}
}

// EncodePayload renders a validated command as its ASCII wire payload.
func EncodePayload(cmd core.Command) (string, error) {
	switch cmd.Kind {
	case core.CommandToggle:
		if _, ok := toggleButtons[cmd.Button]; !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownButton, cmd.Button)
		}
		return "TOGGLEbutton " + cmd.Button, nil
	case core.CommandInfo:
		if cmd.Code < minInfoCode || cmd.Code > maxInfoCode {
			return "", fmt.Errorf("%w: info code %d", ErrInvalidCommand, cmd.Code)
		}
		return "INFObutton " + strconv.Itoa(cmd.Code), nil
	case core.CommandKnob:
		if _, ok := knobs[cmd.Knob]; !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownKnob, cmd.Knob)
		}
		dir := "+"
		if cmd.Direction == core.Reverse {
			dir = "-"
		}
		return fmt.Sprintf("INFOknob %s %s %d %d", cmd.Knob, dir, cmd.Factor, cmd.Ticks), nil
	default:
		return "", fmt.Errorf("%w: kind %d", ErrInvalidCommand, cmd.Kind)
	}
}

// EncodeCommand renders a command as a complete wire frame.
func EncodeCommand(cmd core.Command) ([]byte, error) {
	payload, err := EncodePayload(cmd)
	if err != nil {
		return nil, err
	}
	return EncodeFrame([]byte(payload))
}

// ToggleButtons returns the accepted toggle names in no particular order.
// Used by the API layer to describe the command surface.
func ToggleButtons() []string {
	names := make([]string, 0, len(toggleButtons))
	for name := range toggleButtons {
		names = append(names, name)
	}
	return names
}

// Knobs returns the accepted knob names in no particular order.
func Knobs() []string {
	names := make([]string, 0, len(knobs))
	for name := range knobs {
		names = append(names, name)
	}
	return names
}
