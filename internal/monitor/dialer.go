package monitor

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Conn is the transport the Link speaks over. Both TCP sockets and serial
// ports satisfy it; deadlines bound every read so a silent monitor cannot
// stall the poll loop.
type Conn interface {
	io.ReadWriteCloser
	SetDeadline(t time.Time) error
}

// Dialer opens a transport to the monitor. Injected so tests can supply an
// in-memory connection.
type Dialer interface {
	Dial() (Conn, error)
}

// NewDialer builds a dialer from an address URI. Two schemes are understood:
// tcp://host:port for a serial-over-IP adapter and serial://path for a
// directly attached port.
func NewDialer(address string, baud int) (Dialer, error) {
	switch {
	case strings.HasPrefix(address, "tcp://"):
		return &NetDialer{Address: strings.TrimPrefix(address, "tcp://")}, nil
	case strings.HasPrefix(address, "serial://"):
		return &SerialDialer{Path: strings.TrimPrefix(address, "serial://"), Baud: baud}, nil
	default:
		return nil, fmt.Errorf("monitor: unsupported address %q", address)
	}
}

// NetDialer connects over TCP, typically to a serial-over-IP adapter sitting
// next to the monitor.
type NetDialer struct {
	Address string
	Timeout time.Duration
}

func (d *NetDialer) Dial() (Conn, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	conn, err := net.DialTimeout("tcp", d.Address, timeout)
	if err != nil {
		return nil, fmt.Errorf("monitor: dial %s: %w", d.Address, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true) //nolint:errcheck // best effort
	}
	return conn, nil
}

// SerialDialer opens a local serial port.
type SerialDialer struct {
	Path string
	Baud int
}

func (d *SerialDialer) Dial() (Conn, error) {
	baud := d.Baud
	if baud == 0 {
		baud = 9600
	}
	port, err := serial.Open(d.Path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("monitor: open %s: %w", d.Path, err)
	}
	return &serialConn{port: port}, nil
}

// serialConn adapts a serial port to the Conn interface. The port library
// signals a read timeout as a zero-byte read without error; the Link expects
// the net package convention, so that case is mapped to ErrDeadlineExceeded.
type serialConn struct {
	port serial.Port
}

func (c *serialConn) Read(p []byte) (int, error) {
	n, err := c.port.Read(p)
	if err == nil && n == 0 {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (c *serialConn) Write(p []byte) (int, error) { return c.port.Write(p) }

func (c *serialConn) Close() error { return c.port.Close() }

func (c *serialConn) SetDeadline(t time.Time) error {
	if t.IsZero() {
		return c.port.SetReadTimeout(serial.NoTimeout)
	}
	d := time.Until(t)
	if d <= 0 {
		d = time.Millisecond
	}
	return c.port.SetReadTimeout(d)
}
