package monitor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nerrad567/bvmctl/internal/core"
)

func TestEncodeFrameLayout(t *testing.T) {
	frame, err := EncodeFrame([]byte("TOGGLEbutton POWER"))
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if len(frame) != frameHeaderLen+18 {
		t.Errorf("frame length = %d, want %d", len(frame), frameHeaderLen+18)
	}
	if !bytes.Equal(frame[:frameMagicLen], frameMagic) {
		t.Error("frame missing magic preamble")
	}
	if frame[frameMagicLen] != 18 {
		t.Errorf("length byte = %d, want 18", frame[frameMagicLen])
	}
	if string(frame[frameHeaderLen:]) != "TOGGLEbutton POWER" {
		t.Errorf("payload = %q", frame[frameHeaderLen:])
	}
}

func TestEncodeFrameRejectsOversizedPayload(t *testing.T) {
	payload := bytes.Repeat([]byte{'A'}, MaxPayloadLen+1)
	if _, err := EncodeFrame(payload); !errors.Is(err, ErrPayloadTooLong) {
		t.Fatalf("EncodeFrame = %v, want ErrPayloadTooLong", err)
	}

	// Exactly at the bound must pass.
	if _, err := EncodeFrame(payload[:MaxPayloadLen]); err != nil {
		t.Fatalf("EncodeFrame at bound: %v", err)
	}
}

func TestStatusRequestFrameSize(t *testing.T) {
	frame := StatusRequestFrame()
	if len(frame) != StatusRequestLen {
		t.Errorf("status request length = %d, want %d", len(frame), StatusRequestLen)
	}
	if StatusRequestLen != 31 {
		t.Errorf("StatusRequestLen = %d, want 31", StatusRequestLen)
	}
}

func TestAckRoundTrip(t *testing.T) {
	ack := AckFrame()
	if len(ack) != 13 {
		t.Errorf("ack length = %d, want 13", len(ack))
	}
	if err := ParseAck(ack); err != nil {
		t.Errorf("ParseAck: %v", err)
	}
}

func TestParseAckRejections(t *testing.T) {
	short := AckFrame()[:12]
	if err := ParseAck(short); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("short ack: %v, want ErrInvalidFrame", err)
	}

	badMagic := AckFrame()
	badMagic[0] = 'X'
	if err := ParseAck(badMagic); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("bad magic: %v, want ErrInvalidFrame", err)
	}

	badLen := AckFrame()
	badLen[frameMagicLen] = 5
	if err := ParseAck(badLen); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("nonzero length byte: %v, want ErrInvalidFrame", err)
	}
}

func TestStatusRoundTrip(t *testing.T) {
	want := StatusWords{0x8421, 0x0000, 0x0007, 0x000F, 0xFFFF}

	buf := EncodeStatus(want)
	if len(buf) != StatusResponseLen {
		t.Fatalf("status block length = %d, want %d", len(buf), StatusResponseLen)
	}
	if StatusResponseLen != 53 {
		t.Errorf("StatusResponseLen = %d, want 53", StatusResponseLen)
	}

	got, err := DecodeStatus(buf)
	if err != nil {
		t.Fatalf("DecodeStatus: %v", err)
	}
	if got != want {
		t.Errorf("DecodeStatus = %v, want %v", got, want)
	}

	// Decoding the same bytes twice must give the same words.
	again, err := DecodeStatus(buf)
	if err != nil {
		t.Fatalf("DecodeStatus (second pass): %v", err)
	}
	if again != got {
		t.Error("DecodeStatus is not deterministic")
	}
}

func TestDecodeStatusRejectsBadDigit(t *testing.T) {
	buf := EncodeStatus(StatusWords{})
	buf[frameHeaderLen+statusFirstWordOff] = 0x41 // 'A', outside 0x30..0x3F
	if _, err := DecodeStatus(buf); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("DecodeStatus = %v, want ErrInvalidStatus", err)
	}
}

func TestDecodeStatusRejectsBadFraming(t *testing.T) {
	buf := EncodeStatus(StatusWords{})

	if _, err := DecodeStatus(buf[:StatusResponseLen-1]); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("truncated block: %v, want ErrInvalidFrame", err)
	}

	bad := EncodeStatus(StatusWords{})
	bad[0] = 'X'
	if _, err := DecodeStatus(bad); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("bad magic: %v, want ErrInvalidFrame", err)
	}

	bad = EncodeStatus(StatusWords{})
	bad[frameMagicLen] = statusPayloadLen - 1
	if _, err := DecodeStatus(bad); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("bad length byte: %v, want ErrInvalidFrame", err)
	}
}

func TestApplyStatusPowerBit(t *testing.T) {
	var st core.DeviceState

	// Power is the top bit of the first word.
	ApplyStatus(StatusWords{0x8000, 0, 0, 0, 0}, &st)
	if !st.Power {
		t.Error("Power not set from word 1 bit 15")
	}
	if st.Underscan || st.BlueOnly || st.RCutoff || st.ManPhase {
		t.Error("unrelated flags set")
	}

	ApplyStatus(StatusWords{}, &st)
	if st.Power {
		t.Error("Power not cleared")
	}
}

func TestApplyStatusWordGroups(t *testing.T) {
	var st core.DeviceState
	ApplyStatus(StatusWords{
		maskUnderscan | maskMarker | maskBlueOnly,
		0xFFFF, // reserved word, must not affect flags
		maskRCutoff | maskBCutoff,
		maskManChroma | maskManContrast,
		0xFFFF, // reserved word
	}, &st)

	checks := []struct {
		name string
		got  bool
		want bool
	}{
		{"Underscan", st.Underscan, true},
		{"Marker", st.Marker, true},
		{"BlueOnly", st.BlueOnly, true},
		{"Power", st.Power, false},
		{"RCutoff", st.RCutoff, true},
		{"GCutoff", st.GCutoff, false},
		{"BCutoff", st.BCutoff, true},
		{"ManPhase", st.ManPhase, false},
		{"ManChroma", st.ManChroma, true},
		{"ManContrast", st.ManContrast, true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}
