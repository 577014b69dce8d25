package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/bvmctl/internal/core"
)

// Timing defaults for the link loop.
const (
	// DefaultPollInterval is the status poll cadence while connected.
	DefaultPollInterval = 150 * time.Millisecond

	// DefaultResponseTimeout bounds every read for a status block or ack.
	DefaultResponseTimeout = time.Second

	// DefaultReconnectDelay is the fixed pause between connection attempts.
	// Deliberately not exponential: the monitor is a single local device and
	// a steady one-second cadence keeps recovery time predictable.
	DefaultReconnectDelay = time.Second
)

// LinkState names the connection lifecycle phase.
type LinkState int32

const (
	LinkDisconnected LinkState = iota
	LinkConnecting
	LinkConnected
)

func (s LinkState) String() string {
	switch s {
	case LinkDisconnected:
		return "disconnected"
	case LinkConnecting:
		return "connecting"
	case LinkConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Logger is the optional logging surface for the link. Matches the shape of
// the logging package so a *logging.Logger drops straight in.
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

// LinkStats is a point-in-time snapshot of link counters and the last raw
// status words. Words 2 and 5 carry no decoded flags but are exposed here
// for diagnostics.
type LinkStats struct {
	State         string      `json:"state"`
	PollsSent     uint64      `json:"polls_sent"`
	StatusUpdates uint64      `json:"status_updates"`
	CommandsSent  uint64      `json:"commands_sent"`
	AcksReceived  uint64      `json:"acks_received"`
	AckTimeouts   uint64      `json:"ack_timeouts"`
	PollTimeouts  uint64      `json:"poll_timeouts"`
	DecodeErrors  uint64      `json:"decode_errors"`
	Reconnects    uint64      `json:"reconnects"`
	Words         StatusWords `json:"status_words"`
}

// LinkOptions configures a Link. Dialer, Store and Queue are required;
// everything else has a usable default.
type LinkOptions struct {
	Dialer  Dialer
	Store   *core.StateStore
	Queue   *core.CommandQueue
	Watcher NetworkWatcher

	PollInterval    time.Duration
	ResponseTimeout time.Duration
	ReconnectDelay  time.Duration

	Logger Logger
}

// Link owns the single connection to the monitor and runs the
// connect/poll/drain cycle. It is the only writer on the wire, so commands
// and status polls never interleave.
type Link struct {
	dialer  Dialer
	store   *core.StateStore
	queue   *core.CommandQueue
	watcher NetworkWatcher
	log     Logger

	pollInterval    time.Duration
	responseTimeout time.Duration
	reconnectDelay  time.Duration

	state atomic.Int32
	up    atomic.Bool // tracks whether the last Apply reported a live session

	// prevWords caches the last decoded status so only genuine changes mark
	// the store dirty. prevValid is false until the first poll of a session.
	prevWords StatusWords
	prevValid bool

	statsMu sync.Mutex
	stats   struct {
		pollsSent     uint64
		statusUpdates uint64
		commandsSent  uint64
		acksReceived  uint64
		ackTimeouts   uint64
		pollTimeouts  uint64
		decodeErrors  uint64
		reconnects    uint64
		words         StatusWords
	}
}

// NewLink validates options and builds a Link.
func NewLink(opts LinkOptions) (*Link, error) {
	if opts.Dialer == nil {
		return nil, errors.New("monitor: dialer is required")
	}
	if opts.Store == nil {
		return nil, errors.New("monitor: state store is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("monitor: command queue is required")
	}
	l := &Link{
		dialer:          opts.Dialer,
		store:           opts.Store,
		queue:           opts.Queue,
		watcher:         opts.Watcher,
		log:             opts.Logger,
		pollInterval:    opts.PollInterval,
		responseTimeout: opts.ResponseTimeout,
		reconnectDelay:  opts.ReconnectDelay,
	}
	if l.watcher == nil {
		l.watcher = AlwaysUp()
	}
	if l.log == nil {
		l.log = nopLogger{}
	}
	if l.pollInterval <= 0 {
		l.pollInterval = DefaultPollInterval
	}
	if l.responseTimeout <= 0 {
		l.responseTimeout = DefaultResponseTimeout
	}
	if l.reconnectDelay <= 0 {
		l.reconnectDelay = DefaultReconnectDelay
	}
	return l, nil
}

// State returns the current lifecycle phase.
func (l *Link) State() LinkState {
	return LinkState(l.state.Load())
}

// Stats returns a snapshot of the link counters.
func (l *Link) Stats() LinkStats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return LinkStats{
		State:         l.State().String(),
		PollsSent:     l.stats.pollsSent,
		StatusUpdates: l.stats.statusUpdates,
		CommandsSent:  l.stats.commandsSent,
		AcksReceived:  l.stats.acksReceived,
		AckTimeouts:   l.stats.ackTimeouts,
		PollTimeouts:  l.stats.pollTimeouts,
		DecodeErrors:  l.stats.decodeErrors,
		Reconnects:    l.stats.reconnects,
		Words:         l.stats.words,
	}
}

// Run drives the link until ctx is cancelled. Connection failures are
// retried forever at a fixed cadence; only a vanished network interface at
// construction time is fatal, and that is NewInterfaceWatcher's job.
func (l *Link) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			l.markDown()
			return
		}

		if !l.watcher.Up() {
			l.markDown()
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		l.state.Store(int32(LinkConnecting))
		conn, err := l.dialer.Dial()
		if err != nil {
			l.log.Debug("monitor dial failed", "error", err)
			l.markDown()
			if !l.sleep(ctx) {
				return
			}
			continue
		}

		l.markUp()
		l.log.Info("monitor link established")

		err = l.serve(ctx, conn)
		conn.Close() //nolint:errcheck

		l.markDown()
		if ctx.Err() != nil {
			return
		}

		l.statsMu.Lock()
		l.stats.reconnects++
		l.statsMu.Unlock()

		switch {
		case errors.Is(err, errNetworkDown):
			l.log.Warn("monitor link lost: network interface down")
		default:
			l.log.Warn("monitor link lost", "error", err)
		}
		if !l.sleep(ctx) {
			return
		}
	}
}

// sleep pauses for the reconnect delay. Returns false when ctx ended.
func (l *Link) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(l.reconnectDelay):
		return true
	}
}

// markUp records a fresh session: link metadata goes live and the status
// cache is reset so the first poll repopulates every flag.
func (l *Link) markUp() {
	l.state.Store(int32(LinkConnected))
	l.prevValid = false
	if l.up.CompareAndSwap(false, true) {
		l.store.Apply(func(st *core.DeviceState) {
			st.LinkUp = true
			st.Connected = true
			st.Valid = false
		})
	}
}

// markDown records a dead session exactly once per transition, so repeated
// reconnect failures do not spam waiters with identical snapshots.
func (l *Link) markDown() {
	l.state.Store(int32(LinkDisconnected))
	if l.up.CompareAndSwap(true, false) {
		up := l.watcher.Up()
		l.store.Apply(func(st *core.DeviceState) {
			st.LinkUp = up
			st.Connected = false
			st.Valid = false
		})
	}
}

// serve runs the poll/drain cycle on an established connection. Any returned
// error tears the session down; Run handles the reconnect.
func (l *Link) serve(ctx context.Context, conn Conn) error {
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if !l.watcher.Up() {
			return errNetworkDown
		}
		if err := l.pollStatus(conn); err != nil {
			return err
		}
		if err := l.sendQueued(conn); err != nil {
			return err
		}
	}
}

// pollStatus sends one status request and folds the response into the store.
// A timed-out poll is skipped, not fatal: the monitor is busy redrawing its
// OSD sometimes and answers the next one.
func (l *Link) pollStatus(conn Conn) error {
	if _, err := conn.Write(StatusRequestFrame()); err != nil {
		return fmt.Errorf("status request: %w", err)
	}
	l.statsMu.Lock()
	l.stats.pollsSent++
	l.statsMu.Unlock()

	buf := make([]byte, StatusResponseLen)
	if err := l.readFrame(conn, buf); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			l.statsMu.Lock()
			l.stats.pollTimeouts++
			l.statsMu.Unlock()
			l.log.Debug("status poll timed out")
			return nil
		}
		return fmt.Errorf("status response: %w", err)
	}

	words, err := DecodeStatus(buf)
	if err != nil {
		// A framing or digit error means the byte stream is desynchronised;
		// the only safe recovery is a fresh connection.
		l.statsMu.Lock()
		l.stats.decodeErrors++
		l.statsMu.Unlock()
		return err
	}

	changed := !l.prevValid || words != l.prevWords
	l.prevWords = words
	l.prevValid = true

	l.statsMu.Lock()
	l.stats.words = words
	if changed {
		l.stats.statusUpdates++
	}
	l.statsMu.Unlock()

	if changed {
		l.store.Apply(func(st *core.DeviceState) {
			ApplyStatus(words, st)
			st.Valid = true
		})
	}
	return nil
}

// sendQueued transmits at most one queued command per cycle and waits for
// its acknowledgement. An ack timeout drops the command: the monitor gives
// no way to tell whether it acted, and re-sending a toggle would double it.
func (l *Link) sendQueued(conn Conn) error {
	cmd, ok := l.queue.Pop()
	if !ok {
		return nil
	}

	frame, err := EncodeCommand(cmd)
	if err != nil {
		// Validation happens before enqueue; an unencodable command here is
		// a programming error, but one command must not kill the session.
		l.log.Error("dropping unencodable command", "error", err)
		return nil
	}
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("command send: %w", err)
	}
	l.statsMu.Lock()
	l.stats.commandsSent++
	l.statsMu.Unlock()

	buf := make([]byte, AckLen)
	if err := l.readFrame(conn, buf); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			l.statsMu.Lock()
			l.stats.ackTimeouts++
			l.statsMu.Unlock()
			l.log.Warn("command ack timed out, command dropped")
			return nil
		}
		return fmt.Errorf("command ack: %w", err)
	}
	if err := ParseAck(buf); err != nil {
		return err
	}
	l.statsMu.Lock()
	l.stats.acksReceived++
	l.statsMu.Unlock()
	return nil
}

// readFrame fills buf under the response deadline.
func (l *Link) readFrame(conn Conn, buf []byte) error {
	if err := conn.SetDeadline(time.Now().Add(l.responseTimeout)); err != nil {
		return err
	}
	_, err := io.ReadFull(conn, buf)
	return err
}
