package telemetry

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPersist marks a snapshot that could not be stored or sent.
var ErrPersist = errors.New("telemetry: persist failed")

// Sink accepts finished snapshots. Implementations return promptly;
// failures are reported, never retried by the caller.
type Sink interface {
	PersistSensorSnapshot(SensorSnapshot) error
	PersistFixSnapshot(FixSnapshot) error
}

// MultiSink fans a snapshot out to every sink. One failing sink does not
// stop the others; the returned error joins all failures.
type MultiSink []Sink

func (m MultiSink) PersistSensorSnapshot(s SensorSnapshot) error {
	var errs []error
	for _, sink := range m {
		if err := sink.PersistSensorSnapshot(s); err != nil {
			errs = append(errs, err)
		}
	}
	return joinPersist(errs)
}

func (m MultiSink) PersistFixSnapshot(f FixSnapshot) error {
	var errs []error
	for _, sink := range m {
		if err := sink.PersistFixSnapshot(f); err != nil {
			errs = append(errs, err)
		}
	}
	return joinPersist(errs)
}

func joinPersist(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	err := errors.Join(errs...)
	if errors.Is(err, ErrPersist) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersist, err)
}

// FakeSink records snapshots for testing.
type FakeSink struct {
	mu      sync.Mutex
	sensors []SensorSnapshot
	fixes   []FixSnapshot

	// Err, if set, is returned by every Persist call (nothing is recorded).
	Err error
}

func (f *FakeSink) PersistSensorSnapshot(s SensorSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.sensors = append(f.sensors, s)
	return nil
}

func (f *FakeSink) PersistFixSnapshot(x FixSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.fixes = append(f.fixes, x)
	return nil
}

// Sensors returns a copy of recorded sensor snapshots.
func (f *FakeSink) Sensors() []SensorSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SensorSnapshot, len(f.sensors))
	copy(out, f.sensors)
	return out
}

// Fixes returns a copy of recorded fix snapshots.
func (f *FakeSink) Fixes() []FixSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FixSnapshot, len(f.fixes))
	copy(out, f.fixes)
	return out
}
