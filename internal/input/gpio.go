package input

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// GPIOLine names one kernel GPIO to sample. ActiveLow inverts the raw level,
// matching buttons wired to pull the line to ground when pressed.
type GPIOLine struct {
	Number    int
	ActiveLow bool
}

// GPIOSampler reads button levels through the kernel's sysfs GPIO interface.
// Line i in the slice maps to bit i of the sampled mask.
type GPIOSampler struct {
	lines []GPIOLine
	paths []string
}

// NewGPIOSampler verifies every line is exported and readable. A missing
// line is a wiring or device-tree fault and is reported at startup instead
// of failing on every sample.
func NewGPIOSampler(lines []GPIOLine) (*GPIOSampler, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("input: no gpio lines configured")
	}
	if len(lines) > 32 {
		return nil, fmt.Errorf("input: %d gpio lines exceeds mask width", len(lines))
	}
	s := &GPIOSampler{lines: lines, paths: make([]string, len(lines))}
	for i, line := range lines {
		path := filepath.Join("/sys/class/gpio", "gpio"+strconv.Itoa(line.Number), "value")
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("input: gpio %d: %w", line.Number, err)
		}
		s.paths[i] = path
	}
	return s, nil
}

// Sample reads every configured line into a bitmask.
func (s *GPIOSampler) Sample() (uint32, error) {
	var mask uint32
	for i, path := range s.paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("input: gpio %d: %w", s.lines[i].Number, err)
		}
		high := len(bytes.TrimSpace(raw)) > 0 && bytes.TrimSpace(raw)[0] == '1'
		if high != s.lines[i].ActiveLow {
			mask |= 1 << uint(i)
		}
	}
	return mask, nil
}
