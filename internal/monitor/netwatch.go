package monitor

import (
	"fmt"
	"net"
)

// NetworkWatcher reports whether the physical interface carrying the monitor
// link is present and up. The Link consults it each cycle and tears the
// session down the moment the interface drops, instead of waiting for a
// socket timeout.
type NetworkWatcher interface {
	// Up reports whether the interface is operational right now.
	Up() bool
}

// alwaysUp is the watcher used when no interface is configured, e.g. a
// directly attached serial port.
type alwaysUp struct{}

func (alwaysUp) Up() bool { return true }

// AlwaysUp returns a watcher that never reports the link as down.
func AlwaysUp() NetworkWatcher { return alwaysUp{} }

// InterfaceWatcher checks a named network interface via the kernel's
// interface table.
type InterfaceWatcher struct {
	name string
}

// NewInterfaceWatcher verifies the interface exists and returns a watcher
// for it. A missing interface is a hardware fault: the caller must halt
// rather than retry, since no amount of reconnecting conjures a NIC.
func NewInterfaceWatcher(name string) (*InterfaceWatcher, error) {
	if _, err := net.InterfaceByName(name); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrHardwareAbsent, name, err)
	}
	return &InterfaceWatcher{name: name}, nil
}

func (w *InterfaceWatcher) Up() bool {
	iface, err := net.InterfaceByName(w.name)
	if err != nil {
		return false
	}
	const operational = net.FlagUp | net.FlagRunning
	return iface.Flags&operational == operational
}
