package input

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/bvmctl/internal/core"
)

// DefaultSampleInterval is the input poll cadence.
const DefaultSampleInterval = 100 * time.Millisecond

// Sampler reads all inputs at once as a bitmask, bit i for input i.
type Sampler interface {
	Sample() (uint32, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func() (uint32, error)

func (f SamplerFunc) Sample() (uint32, error) { return f() }

// Binding maps an input bit to the command it fires on a rising edge.
type Binding struct {
	Bit     uint
	Command core.Command
}

// Logger is the detector's optional logging surface.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// DetectorOptions configures a Detector.
type DetectorOptions struct {
	Sampler  Sampler
	Queue    *core.CommandQueue
	Bindings []Binding
	Interval time.Duration
	Logger   Logger
}

// Detector samples the inputs on a fixed cadence and pushes the bound
// command for every rising edge. A full queue drops the press with a warning
// rather than blocking: button presses are low-frequency human actions and
// the queue backing up means the link is down anyway.
type Detector struct {
	sampler  Sampler
	queue    *core.CommandQueue
	bindings []Binding
	interval time.Duration
	log      Logger

	prev uint32
}

// NewDetector validates options and builds a Detector.
func NewDetector(opts DetectorOptions) (*Detector, error) {
	if opts.Sampler == nil {
		return nil, errors.New("input: sampler is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("input: command queue is required")
	}
	d := &Detector{
		sampler:  opts.Sampler,
		queue:    opts.Queue,
		bindings: opts.Bindings,
		interval: opts.Interval,
		log:      opts.Logger,
	}
	if d.interval <= 0 {
		d.interval = DefaultSampleInterval
	}
	if d.log == nil {
		d.log = nopLogger{}
	}
	return d, nil
}

// Run samples until ctx is cancelled.
func (d *Detector) Run(ctx context.Context) {
	// Prime the previous mask so a button held at startup does not fire.
	if current, err := d.sampler.Sample(); err == nil {
		d.prev = current
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		current, err := d.sampler.Sample()
		if err != nil {
			d.log.Warn("input sample failed", "error", err)
			continue
		}
		d.step(current)
	}
}

// step runs one edge-detection cycle against the new sample.
func (d *Detector) step(current uint32) {
	rising := current &^ d.prev
	d.prev = current
	if rising == 0 {
		return
	}

	for _, b := range d.bindings {
		if rising&(1<<b.Bit) == 0 {
			continue
		}
		if err := d.queue.Push(b.Command); err != nil {
			d.log.Warn("input press dropped", "bit", b.Bit, "error", err)
			continue
		}
		d.log.Debug("input press queued", "bit", b.Bit)
	}
}
