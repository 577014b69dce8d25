package core

// CommandKind discriminates the command variants. The queue treats commands
// as opaque; only the device link interprets the kind.
type CommandKind uint8

// Command kinds.
const (
	// CommandToggle flips one of the monitor's latching buttons.
	CommandToggle CommandKind = iota

	// CommandInfo presses a numbered info/menu button.
	CommandInfo

	// CommandKnob turns one of the rotary adjustment knobs.
	CommandKnob
)

// Direction is the rotation direction for knob commands.
type Direction uint8

// Knob directions.
const (
	Forward Direction = iota
	Reverse
)

// Command is one outbound device command. Exactly the fields for its Kind
// are meaningful; the rest stay zero.
type Command struct {
	Kind CommandKind

	// Button is the toggle button name (CommandToggle).
	Button string

	// Code is the info button code (CommandInfo).
	Code int

	// Knob fields (CommandKnob).
	Knob      string
	Direction Direction
	Factor    int
	Ticks     int
}
