package gps

import "sync"

// FakeSource is a test double that returns scripted lines, then ErrTimeout.
type FakeSource struct {
	mu    sync.Mutex
	lines    []string
	reads    int
	discards int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by ReadLine()
	ReadError error
}

// NewFakeSource creates a FakeSource with the given lines.
func NewFakeSource(lines ...string) *FakeSource {
	return &FakeSource{lines: lines}
}

// Push appends lines to the script.
func (f *FakeSource) Push(lines ...string) {
	f.mu.Lock()
	f.lines = append(f.lines, lines...)
	f.mu.Unlock()
}

// ReadLine returns the next scripted line.
func (f *FakeSource) ReadLine() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.ReadError != nil {
		return "", f.ReadError
	}
	if len(f.lines) == 0 {
		return "", ErrTimeout
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

// Reads returns how many times ReadLine was called.
func (f *FakeSource) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Discard records the call. Scripted lines are whole sentences, so none
// are dropped.
func (f *FakeSource) Discard() {
	f.mu.Lock()
	f.discards++
	f.mu.Unlock()
}

// Discards returns how many times Discard was called.
func (f *FakeSource) Discards() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.discards
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
