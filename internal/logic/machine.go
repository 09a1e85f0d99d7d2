package logic

import (
	"fmt"
	"time"
)

// Machine owns the flight mode. Preflight leaves only by the launch
// command; Start and Ascent advance on a confirmed altitude trend.
// Modes never revert.
type Machine struct {
	mode      Mode
	trend     *TrendDetector
	startTime time.Time
	changedAt time.Time
	counts    TransitionCounts
}

// NewMachine creates a machine in Preflight. trendSamples is the number of
// consecutive rising (then falling) altitude steps that move Start to
// Ascent (then Ascent to Descent); 0 disables automatic transitions.
func NewMachine(trendSamples int, startTime time.Time) *Machine {
	return &Machine{
		mode:      Preflight,
		trend:     NewTrendDetector(trendSamples),
		startTime: startTime,
		changedAt: startTime,
	}
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode {
	return m.mode
}

// Since returns when the current mode was entered.
func (m *Machine) Since() time.Time {
	return m.changedAt
}

// BeginLaunch moves Preflight to Start.
func (m *Machine) BeginLaunch(now time.Time) (Transition, error) {
	if m.mode != Preflight {
		return Transition{}, fmt.Errorf("%w: launch from %s", ErrInvalidTransition, m.mode)
	}
	m.counts.Launch++
	return m.set(Start, now, 0), nil
}

// ObserveAltitude feeds a barometric altitude sample and returns the
// transition it triggered, if any.
func (m *Machine) ObserveAltitude(alt float64, now time.Time) (Transition, bool) {
	if !m.mode.InFlight() {
		return Transition{}, false
	}
	trend := m.trend.Observe(alt)

	switch {
	case m.mode == Start && trend == Rising:
		m.counts.Ascent++
		t := m.set(Ascent, now, alt)
		// Descent needs its own run of falling samples.
		m.trend.Reset()
		m.trend.Observe(alt)
		return t, true
	case m.mode == Ascent && trend == Falling:
		m.counts.Descent++
		return m.set(Descent, now, alt), true
	}
	return Transition{}, false
}

func (m *Machine) set(to Mode, now time.Time, alt float64) Transition {
	t := Transition{Timestamp: now, From: m.mode, To: to, Altitude: alt}
	m.mode = to
	m.changedAt = now
	return t
}

// Heartbeat returns periodic status data.
func (m *Machine) Heartbeat(now time.Time) HeartbeatData {
	return HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Mode:      m.mode,
		Counts:    m.counts,
	}
}

// Counts returns the transitions taken since startup.
func (m *Machine) Counts() TransitionCounts {
	return m.counts
}
