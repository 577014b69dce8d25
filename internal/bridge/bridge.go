package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/bvmctl/internal/core"
	"github.com/nerrad567/bvmctl/internal/infrastructure/mqtt"
	"github.com/nerrad567/bvmctl/internal/monitor"
)

// defaultStatsInterval is how often link counters are published.
const defaultStatsInterval = 30 * time.Second

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// PublishRetained publishes a retained message with the default QoS.
	PublishRetained(topic string, payload []byte) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// StatsSource exposes the device link counters. Satisfied by *monitor.Link.
type StatsSource interface {
	Stats() monitor.LinkStats
}

// Telemetry mirrors state and link data into the time-series database.
// This is optional - if nil, the bridge operates without telemetry.
type Telemetry interface {
	WriteStateSnapshot(nodeID string, flags map[string]bool)
	WriteLinkCounters(nodeID string, counters map[string]uint64)
}

// Logger is the minimal structured logging interface the bridge accepts.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Bridge translates between MQTT and the coordination core.
// It handles:
//   - Receiving command payloads over MQTT and pushing them onto the queue
//   - Publishing retained state snapshots on every change
//   - Publishing periodic link counters
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	nodeID    string
	mqtt      MQTTClient
	queue     *core.CommandQueue
	stats     StatsSource // Optional link counters source
	telemetry Telemetry   // Optional time-series mirror
	topics    mqtt.Topics

	statsInterval time.Duration

	// updates carries state snapshots from the dispatcher listener to the
	// publisher goroutine. Capacity one, latest wins: the retained topic
	// only ever needs the newest snapshot.
	updates chan core.DeviceState

	// Shutdown coordination
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// Options holds configuration for creating a bridge.
type Options struct {
	// NodeID identifies this control node in telemetry tags.
	NodeID string

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Queue receives parsed commands.
	Queue *core.CommandQueue

	// Stats is an optional source of link counters for periodic publishing.
	Stats StatsSource

	// Telemetry is an optional time-series mirror.
	Telemetry Telemetry

	// StatsInterval between link counter publishes. Default: 30s.
	StatsInterval time.Duration

	// Logger is optional structured logger.
	Logger Logger
}

// New creates a new bridge instance.
// Call Start() to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Queue == nil {
		return nil, fmt.Errorf("command queue is required")
	}

	interval := opts.StatsInterval
	if interval <= 0 {
		interval = defaultStatsInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &Bridge{
		nodeID:        opts.NodeID,
		mqtt:          opts.MQTTClient,
		queue:         opts.Queue,
		stats:         opts.Stats,
		telemetry:     opts.Telemetry,
		statsInterval: interval,
		updates:       make(chan core.DeviceState, 1),
		done:          make(chan struct{}),
		logger:        logger,
	}, nil
}

// Start begins bridge operation.
// This subscribes to the command topics and starts the publisher goroutines.
func (b *Bridge) Start(ctx context.Context) error {
	commandTopic := b.topics.AllCommands()
	if err := b.mqtt.Subscribe(commandTopic, 1, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logger.Info("subscribed to commands", "topic", commandTopic)

	b.wg.Add(1)
	go b.publishLoop(ctx)

	if b.stats != nil {
		b.wg.Add(1)
		go b.statsLoop(ctx)
	}

	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
		b.logger.Info("bridge stopped")
	})
}

// HandleStateChange is the dispatcher listener. It hands the snapshot to the
// publisher goroutine and never blocks: if an older snapshot is still
// pending it is replaced.
func (b *Bridge) HandleStateChange(state core.DeviceState) {
	for {
		select {
		case b.updates <- state:
			return
		default:
		}
		select {
		case <-b.updates:
		default:
		}
	}
}

// publishLoop publishes queued snapshots until shutdown.
func (b *Bridge) publishLoop(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case state := <-b.updates:
			b.publishState(state)
		}
	}
}

// publishState publishes one retained snapshot and mirrors it to telemetry.
func (b *Bridge) publishState(state core.DeviceState) {
	payload, err := json.Marshal(state)
	if err != nil {
		b.logger.Error("failed to marshal state", "error", err)
		return
	}

	if err := b.mqtt.PublishRetained(b.topics.State(), payload); err != nil {
		b.logger.Warn("failed to publish state", "error", err)
	}

	if b.telemetry != nil {
		b.telemetry.WriteStateSnapshot(b.nodeID, stateFlags(state))
	}
}

// statsLoop publishes link counters on a fixed interval until shutdown.
func (b *Bridge) statsLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			b.publishStats()
		}
	}
}

// publishStats publishes one link counters sample.
func (b *Bridge) publishStats() {
	stats := b.stats.Stats()

	payload, err := json.Marshal(stats)
	if err != nil {
		b.logger.Error("failed to marshal link stats", "error", err)
		return
	}

	if err := b.mqtt.Publish(b.topics.LinkStats(), payload, 0, false); err != nil {
		b.logger.Warn("failed to publish link stats", "error", err)
	}

	if b.telemetry != nil {
		b.telemetry.WriteLinkCounters(b.nodeID, map[string]uint64{
			"polls_sent":     stats.PollsSent,
			"status_updates": stats.StatusUpdates,
			"commands_sent":  stats.CommandsSent,
			"acks_received":  stats.AcksReceived,
			"ack_timeouts":   stats.AckTimeouts,
			"poll_timeouts":  stats.PollTimeouts,
			"decode_errors":  stats.DecodeErrors,
			"reconnects":     stats.Reconnects,
		})
	}
}

// Inbound command payloads. One shape per command kind.
type togglePayload struct {
	Button string `json:"button"`
}

type infoPayload struct {
	Code int `json:"code"`
}

type knobPayload struct {
	Knob      string `json:"knob"`
	Direction string `json:"direction"`
	Factor    int    `json:"factor"`
	Ticks     int    `json:"ticks"`
}

// handleCommand processes one inbound command message. The kind is the final
// topic segment (bvmctl/command/{toggle,info,knob}).
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	kind := topic[strings.LastIndex(topic, "/")+1:]

	cmd, err := b.parseCommand(kind, payload)
	if err != nil {
		b.logger.Warn("rejected command", "topic", topic, "error", err)
		return err
	}

	if err := b.queue.Push(cmd); err != nil {
		b.logger.Warn("dropped command", "topic", topic, "error", err)
		return err
	}

	b.logger.Debug("queued command", "topic", topic)
	return nil
}

// parseCommand translates a JSON payload into a device command.
func (b *Bridge) parseCommand(kind string, payload []byte) (core.Command, error) {
	switch kind {
	case "toggle":
		var p togglePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return core.Command{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return monitor.NewToggleCommand(p.Button)

	case "info":
		var p infoPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return core.Command{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return monitor.NewInfoCommand(p.Code)

	case "knob":
		var p knobPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return core.Command{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		dir, err := monitor.ParseDirection(p.Direction)
		if err != nil {
			return core.Command{}, err
		}
		return monitor.NewKnobCommand(p.Knob, dir, p.Factor, p.Ticks)

	default:
		return core.Command{}, fmt.Errorf("%w: %q", ErrUnknownCommandKind, kind)
	}
}

// stateFlags flattens a snapshot into the flag map telemetry expects.
// Link metadata rides along so availability can be graphed too.
func stateFlags(state core.DeviceState) map[string]bool {
	return map[string]bool{
		"power":        state.Power,
		"underscan":    state.Underscan,
		"h_delay":      state.HDelay,
		"v_delay":      state.VDelay,
		"monochrome":   state.Monochrome,
		"char_mute":    state.CharMute,
		"marker":       state.Marker,
		"ext_sync":     state.ExtSync,
		"aperture":     state.Aperture,
		"chroma_up":    state.ChromaUp,
		"aspect":       state.Aspect,
		"color_temp":   state.ColorTemp,
		"comb":         state.Comb,
		"blue_only":    state.BlueOnly,
		"r_cutoff":     state.RCutoff,
		"g_cutoff":     state.GCutoff,
		"b_cutoff":     state.BCutoff,
		"man_phase":    state.ManPhase,
		"man_chroma":   state.ManChroma,
		"man_bright":   state.ManBright,
		"man_contrast": state.ManContrast,
		"link_up":      state.LinkUp,
		"connected":    state.Connected,
		"valid":        state.Valid,
	}
}
