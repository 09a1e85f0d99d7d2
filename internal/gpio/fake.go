package gpio

import (
	"fmt"
	"sync"
)

// Write records one FakeBank.Write call.
type Write struct {
	Port Port
	Pin  int
	Bit  int
}

// FakeBank is a test double that keeps pin state in memory and records writes.
type FakeBank struct {
	mu     sync.Mutex
	dirs   map[int]Direction
	values map[int]int
	writes []Write

	// Closed tracks if Close was called
	Closed bool

	// WriteError, if set, will be returned by Write()
	WriteError error
}

// NewFakeBank creates an empty FakeBank.
func NewFakeBank() *FakeBank {
	return &FakeBank{
		dirs:   make(map[int]Direction),
		values: make(map[int]int),
	}
}

// ConfigureDirection records the pin's mode.
func (f *FakeBank) ConfigureDirection(port Port, pin int, dir Direction) error {
	off, err := Offset(port, pin)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs[off] = dir
	if dir == Output {
		f.values[off] = 0
	}
	return nil
}

// Write sets an output pin.
func (f *FakeBank) Write(port Port, pin int, bit int) error {
	off, err := Offset(port, pin)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	dir, ok := f.dirs[off]
	if !ok || dir != Output {
		return fmt.Errorf("write %s%d: pin is not an output", port, pin)
	}
	f.values[off] = bit & 1
	f.writes = append(f.writes, Write{Port: port, Pin: pin, Bit: bit & 1})
	return nil
}

// Read returns the pin value.
func (f *FakeBank) Read(port Port, pin int) (int, error) {
	off, err := Offset(port, pin)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.dirs[off]; !ok {
		return 0, fmt.Errorf("%s%d: direction not configured", port, pin)
	}
	return f.values[off], nil
}

// SetInput drives the value an input pin reads back.
func (f *FakeBank) SetInput(port Port, pin int, bit int) {
	off, _ := Offset(port, pin)
	f.mu.Lock()
	f.values[off] = bit & 1
	f.mu.Unlock()
}

// Direction returns the configured mode and whether the pin is configured.
func (f *FakeBank) Direction(port Port, pin int) (Direction, bool) {
	off, _ := Offset(port, pin)
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dirs[off]
	return d, ok
}

// Writes returns a copy of all recorded writes.
func (f *FakeBank) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Write, len(f.writes))
	copy(out, f.writes)
	return out
}

// Close marks the bank as closed.
func (f *FakeBank) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
