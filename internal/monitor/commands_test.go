package monitor

import (
	"errors"
	"testing"

	"github.com/nerrad567/bvmctl/internal/core"
)

func TestKnobPayloadFormat(t *testing.T) {
	cmd, err := NewKnobCommand("PHASE", core.Forward, 10, 5)
	if err != nil {
		t.Fatalf("NewKnobCommand: %v", err)
	}
	payload, err := EncodePayload(cmd)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	if payload != "INFOknob PHASE + 10 5" {
		t.Errorf("payload = %q, want %q", payload, "INFOknob PHASE + 10 5")
	}

	cmd, _ = NewKnobCommand("CONTRAST", core.Reverse, 1, 3)
	payload, _ = EncodePayload(cmd)
	if payload != "INFOknob CONTRAST - 1 3" {
		t.Errorf("payload = %q, want %q", payload, "INFOknob CONTRAST - 1 3")
	}
}

func TestTogglePayloadFormat(t *testing.T) {
	cmd, err := NewToggleCommand("POWER")
	if err != nil {
		t.Fatalf("NewToggleCommand: %v", err)
	}
	payload, err := EncodePayload(cmd)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	if payload != "TOGGLEbutton POWER" {
		t.Errorf("payload = %q, want %q", payload, "TOGGLEbutton POWER")
	}
}

func TestInfoPayloadFormat(t *testing.T) {
	cmd, err := NewInfoCommand(7)
	if err != nil {
		t.Fatalf("NewInfoCommand: %v", err)
	}
	payload, err := EncodePayload(cmd)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	if payload != "INFObutton 7" {
		t.Errorf("payload = %q, want %q", payload, "INFObutton 7")
	}
}

func TestAllCommandsFitFrameBound(t *testing.T) {
	// The longest toggle and the worst-case knob command must both encode
	// into a legal frame.
	for name := range toggleButtons {
		cmd, _ := NewToggleCommand(name)
		if _, err := EncodeCommand(cmd); err != nil {
			t.Errorf("toggle %s: %v", name, err)
		}
	}
	for name := range knobs {
		cmd, _ := NewKnobCommand(name, core.Reverse, maxKnobFactor, maxKnobTicks)
		if _, err := EncodeCommand(cmd); err != nil {
			t.Errorf("knob %s at max parameters: %v", name, err)
		}
	}
}

func TestNewToggleCommandRejectsUnknownButton(t *testing.T) {
	if _, err := NewToggleCommand("VOLUME"); !errors.Is(err, ErrUnknownButton) {
		t.Fatalf("NewToggleCommand = %v, want ErrUnknownButton", err)
	}
}

func TestNewKnobCommandValidation(t *testing.T) {
	tests := []struct {
		name    string
		knob    string
		dir     core.Direction
		factor  int
		ticks   int
		wantErr error
	}{
		{"unknown knob", "GAIN", core.Forward, 1, 1, ErrUnknownKnob},
		{"zero factor", "PHASE", core.Forward, 0, 1, ErrInvalidCommand},
		{"factor too large", "PHASE", core.Forward, 100, 1, ErrInvalidCommand},
		{"zero ticks", "PHASE", core.Forward, 1, 0, ErrInvalidCommand},
		{"ticks too large", "PHASE", core.Forward, 1, 100, ErrInvalidCommand},
		{"bad direction", "PHASE", core.Direction(99), 1, 1, ErrInvalidCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewKnobCommand(tt.knob, tt.dir, tt.factor, tt.ticks); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewKnobCommand = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewInfoCommandValidation(t *testing.T) {
	if _, err := NewInfoCommand(-1); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("code -1: %v, want ErrInvalidCommand", err)
	}
	if _, err := NewInfoCommand(100); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("code 100: %v, want ErrInvalidCommand", err)
	}
	if _, err := NewInfoCommand(0); err != nil {
		t.Errorf("code 0: %v", err)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		token string
		want  core.Direction
	}{
		{"+", core.Forward},
		{"forward", core.Forward},
		{"-", core.Reverse},
		{"reverse", core.Reverse},
	}
	for _, tt := range tests {
		d, err := ParseDirection(tt.token)
		if err != nil || d != tt.want {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v", tt.token, d, err, tt.want)
		}
	}

	for _, bad := range []string{"up", "FORWARD", "++", ""} {
		if _, err := ParseDirection(bad); !errors.Is(err, ErrInvalidCommand) {
			t.Errorf("ParseDirection(%q) = %v, want ErrInvalidCommand", bad, err)
		}
	}
}
