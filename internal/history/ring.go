// Package history keeps bounded windows of recent samples.
// Appending past capacity discards the oldest entry.
package history

import "errors"

// ErrEmpty is returned when a sample is requested before any was recorded.
var ErrEmpty = errors.New("history: no samples recorded")

// DefaultCapacity is the depth of the altitude windows carried in flight.
const DefaultCapacity = 20

// Ring is a fixed-capacity FIFO.
// Not safe for concurrent use; the caller synchronizes.
type Ring[T any] struct {
	buf   []T
	head  int // next write position
	count int
}

// NewRing returns an empty ring. A non-positive capacity falls back to DefaultCapacity.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v and reports whether the oldest sample was evicted to make room.
func (r *Ring[T]) Push(v T) (evicted bool) {
	evicted = r.count == len(r.buf)
	// When full, head already points at the oldest entry.
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if !evicted {
		r.count++
	}
	return evicted
}

// Latest returns the most recently pushed sample.
func (r *Ring[T]) Latest() (T, error) {
	var zero T
	if r.count == 0 {
		return zero, ErrEmpty
	}
	return r.buf[(r.head-1+len(r.buf))%len(r.buf)], nil
}

// Values returns the retained samples, oldest first.
func (r *Ring[T]) Values() []T {
	if r.count == 0 {
		return nil
	}
	out := make([]T, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// Drain returns all retained samples, oldest first, and empties the ring.
func (r *Ring[T]) Drain() []T {
	out := r.Values()
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head = 0
	r.count = 0
	return out
}

// Len returns the number of retained samples.
func (r *Ring[T]) Len() int { return r.count }

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Buffer is a window of numeric samples such as barometric or GPS altitude.
type Buffer = Ring[float64]

// New returns an empty altitude window.
func New(capacity int) *Buffer {
	return NewRing[float64](capacity)
}
