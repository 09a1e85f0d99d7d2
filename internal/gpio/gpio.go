// Package gpio drives the MCP23017 port expander that selects who listens
// to the GPS serial line. The real implementation uses the Linux GPIO
// character device (the expander is registered as its own gpiochip).
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
)

// Port names one of the expander's two 8-bit ports.
type Port byte

const (
	PortA Port = 'A'
	PortB Port = 'B'
)

func (p Port) String() string {
	return string(rune(p))
}

// Direction is a pin mode.
type Direction int

const (
	Output Direction = iota
	Input
)

func (d Direction) String() string {
	if d == Input {
		return "in"
	}
	return "out"
}

// PinsPerPort is the width of each expander port.
const PinsPerPort = 8

// ErrPin is returned for a port/pin pair outside the expander.
var ErrPin = errors.New("gpio: invalid pin")

// Bank configures, writes and reads expander pins.
type Bank interface {
	ConfigureDirection(port Port, pin int, dir Direction) error
	// Write drives an output pin. bit is 0 or 1.
	Write(port Port, pin int, bit int) error
	Read(port Port, pin int) (int, error)
	// Close releases GPIO resources.
	Close() error
}

// Offset maps a port/pin pair to the gpiochip line offset: port A is
// lines 0-7, port B is lines 8-15.
func Offset(port Port, pin int) (int, error) {
	if pin < 0 || pin >= PinsPerPort {
		return 0, fmt.Errorf("%w: %s%d", ErrPin, port, pin)
	}
	switch port {
	case PortA:
		return pin, nil
	case PortB:
		return PinsPerPort + pin, nil
	}
	return 0, fmt.Errorf("%w: port %q", ErrPin, byte(port))
}

// Unavailable returns a Bank whose every operation fails with err. It stands
// in for hardware that could not be opened so the rest of the system runs.
func Unavailable(err error) Bank {
	return unavailable{err: err}
}

type unavailable struct{ err error }

func (u unavailable) ConfigureDirection(Port, int, Direction) error { return u.err }
func (u unavailable) Write(Port, int, int) error                    { return u.err }
func (u unavailable) Read(Port, int) (int, error)                   { return 0, u.err }
func (u unavailable) Close() error                                  { return nil }
