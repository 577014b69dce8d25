package monitor

import (
	"bytes"
	"fmt"

	"github.com/nerrad567/bvmctl/internal/core"
)

// Wire format constants.
//
// Every frame in either direction starts with the same 12-byte magic
// followed by one payload-length byte. Requests carry an ASCII payload of at
// most MaxPayloadLen bytes. The monitor answers every command with a bare
// 13-byte acknowledgement (magic + zero length); the status request is
// answered with a fixed 53-byte status block instead.
const (
	frameMagicLen  = 12
	frameHeaderLen = frameMagicLen + 1 // magic + length byte

	// MaxPayloadLen is the protocol's hard bound on request payloads.
	MaxPayloadLen = 25

	// AckLen is the size of the fixed acknowledgement frame.
	AckLen = frameHeaderLen

	// StatusRequestLen is the size of the pre-built status request frame.
	StatusRequestLen = frameHeaderLen + len(statusRequestPayload)

	// StatusResponseLen is the size of the fixed status block.
	StatusResponseLen = frameHeaderLen + statusPayloadLen

	statusPayloadLen = 40
)

// frameMagic is the fixed preamble every frame carries.
var frameMagic = []byte("SONY MONITOR")

// statusRequestPayload asks the monitor for its current status block.
const statusRequestPayload = "STATUSget 00000001"

// Status block layout. The 40-byte payload opens with a fixed prefix and
// carries the five 16-bit status words as runs of four nibble-digits
// (byte value 0x30 + nibble), one word every five bytes; the remainder of
// the payload is reserved padding.
const (
	statusPrefix        = "STATUS "
	statusWordCount     = 5
	statusWordStride    = 5 // 4 digits + 1 separator
	statusFirstWordOff  = len(statusPrefix)
	statusDigitsPerWord = 4
	nibbleBase          = 0x30 // '0'; digits run 0x30..0x3F
)

// StatusWords holds the five decoded 16-bit status words. Words 1, 3 and 4
// (indices 0, 2, 3) drive the DeviceState flags; words 2 and 5 are reserved
// by the monitor and kept decoded for forward compatibility.
type StatusWords [statusWordCount]uint16

// EncodeFrame wraps payload in the wire format after validating its length
// against the protocol bound. It never truncates: an oversized payload is an
// error, not a shorter frame.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLong, len(payload), MaxPayloadLen)
	}
	buf := make([]byte, frameHeaderLen+len(payload))
	copy(buf, frameMagic)
	buf[frameMagicLen] = byte(len(payload))
	copy(buf[frameHeaderLen:], payload)
	return buf, nil
}

// StatusRequestFrame returns the fixed status request. The frame is rebuilt
// per call so callers cannot corrupt a shared buffer.
func StatusRequestFrame() []byte {
	frame, err := EncodeFrame([]byte(statusRequestPayload))
	if err != nil {
		// statusRequestPayload is a compile-time constant within the bound.
		panic(err)
	}
	return frame
}

// ParseAck validates a received acknowledgement frame.
func ParseAck(buf []byte) error {
	if len(buf) != AckLen {
		return fmt.Errorf("%w: ack length %d, want %d", ErrInvalidFrame, len(buf), AckLen)
	}
	if !bytes.Equal(buf[:frameMagicLen], frameMagic) {
		return fmt.Errorf("%w: bad ack magic", ErrInvalidFrame)
	}
	if buf[frameMagicLen] != 0 {
		return fmt.Errorf("%w: ack declares payload length %d", ErrInvalidFrame, buf[frameMagicLen])
	}
	return nil
}

// DecodeStatus decodes a 53-byte status block into the five status words.
// Decoding is pure: identical input always yields identical output.
func DecodeStatus(buf []byte) (StatusWords, error) {
	var words StatusWords

	if len(buf) != StatusResponseLen {
		return words, fmt.Errorf("%w: length %d, want %d", ErrInvalidFrame, len(buf), StatusResponseLen)
	}
	if !bytes.Equal(buf[:frameMagicLen], frameMagic) {
		return words, fmt.Errorf("%w: bad status magic", ErrInvalidFrame)
	}
	if int(buf[frameMagicLen]) != statusPayloadLen {
		return words, fmt.Errorf("%w: status declares payload length %d, want %d",
			ErrInvalidFrame, buf[frameMagicLen], statusPayloadLen)
	}

	payload := buf[frameHeaderLen:]
	if !bytes.HasPrefix(payload, []byte(statusPrefix)) {
		return words, fmt.Errorf("%w: missing status prefix", ErrInvalidStatus)
	}

	for i := range statusWordCount {
		off := statusFirstWordOff + i*statusWordStride
		var w uint16
		for j := range statusDigitsPerWord {
			b := payload[off+j]
			if b < nibbleBase || b > nibbleBase+0x0F {
				return StatusWords{}, fmt.Errorf("%w: byte 0x%02X at word %d digit %d",
					ErrInvalidStatus, b, i+1, j)
			}
			w = w<<4 | uint16(b-nibbleBase)
		}
		words[i] = w
	}
	return words, nil
}

// EncodeStatus builds a status block for the given words. The monitor side
// of the protocol; used by tests and the device simulator.
func EncodeStatus(words StatusWords) []byte {
	payload := make([]byte, statusPayloadLen)
	for i := range payload {
		payload[i] = ' '
	}
	copy(payload, statusPrefix)
	for i, w := range words {
		off := statusFirstWordOff + i*statusWordStride
		payload[off] = nibbleBase + byte(w>>12&0x0F)
		payload[off+1] = nibbleBase + byte(w>>8&0x0F)
		payload[off+2] = nibbleBase + byte(w>>4&0x0F)
		payload[off+3] = nibbleBase + byte(w&0x0F)
	}

	buf := make([]byte, frameHeaderLen+statusPayloadLen)
	copy(buf, frameMagic)
	buf[frameMagicLen] = statusPayloadLen
	copy(buf[frameHeaderLen:], payload)
	return buf
}

// AckFrame returns the fixed acknowledgement. Test/simulator helper.
func AckFrame() []byte {
	buf := make([]byte, AckLen)
	copy(buf, frameMagic)
	return buf
}

// Status word 1 masks: the monitor's primary feature flags.
const (
	maskPower      = 0x8000
	maskUnderscan  = 0x4000
	maskHDelay     = 0x2000
	maskVDelay     = 0x1000
	maskMonochrome = 0x0800
	maskCharMute   = 0x0400
	maskMarker     = 0x0200
	maskExtSync    = 0x0100
	maskAperture   = 0x0080
	maskChromaUp   = 0x0040
	maskAspect     = 0x0020
	maskColorTemp  = 0x0010
	maskComb       = 0x0008
	maskBlueOnly   = 0x0004
)

// Status word 3 masks: colour cutoff flags.
const (
	maskRCutoff = 0x0001
	maskGCutoff = 0x0002
	maskBCutoff = 0x0004
)

// Status word 4 masks: manual override flags.
const (
	maskManPhase    = 0x0001
	maskManChroma   = 0x0002
	maskManBright   = 0x0004
	maskManContrast = 0x0008
)

// ApplyStatus translates the decoded words onto the state's feature flags.
// Words 2 and 5 carry no known flags and are left to the link's raw-word
// cache. Link metadata (link-up/connected/valid) is the caller's business.
func ApplyStatus(words StatusWords, st *core.DeviceState) {
	w1, w3, w4 := words[0], words[2], words[3]

	st.Power = w1&maskPower != 0
	st.Underscan = w1&maskUnderscan != 0
	st.HDelay = w1&maskHDelay != 0
	st.VDelay = w1&maskVDelay != 0
	st.Monochrome = w1&maskMonochrome != 0
	st.CharMute = w1&maskCharMute != 0
	st.Marker = w1&maskMarker != 0
	st.ExtSync = w1&maskExtSync != 0
	st.Aperture = w1&maskAperture != 0
	st.ChromaUp = w1&maskChromaUp != 0
	st.Aspect = w1&maskAspect != 0
	st.ColorTemp = w1&maskColorTemp != 0
	st.Comb = w1&maskComb != 0
	st.BlueOnly = w1&maskBlueOnly != 0

	st.RCutoff = w3&maskRCutoff != 0
	st.GCutoff = w3&maskGCutoff != 0
	st.BCutoff = w3&maskBCutoff != 0

	st.ManPhase = w4&maskManPhase != 0
	st.ManChroma = w4&maskManChroma != 0
	st.ManBright = w4&maskManBright != 0
	st.ManContrast = w4&maskManContrast != 0
}
