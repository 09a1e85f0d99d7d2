// Package logic contains the flight-mode rules.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"time"
)

// Mode is the flight phase.
type Mode int

const (
	Preflight Mode = iota
	Start
	Ascent
	Descent
)

func (m Mode) String() string {
	switch m {
	case Preflight:
		return "PREFLIGHT"
	case Start:
		return "START"
	case Ascent:
		return "ASCENT"
	case Descent:
		return "DESCENT"
	}
	return "UNKNOWN"
}

// InFlight reports whether the telemetry loop, not the console, drives ticks.
func (m Mode) InFlight() bool {
	return m != Preflight
}

// ErrInvalidTransition is returned for a command the current mode does not accept.
var ErrInvalidTransition = errors.New("logic: invalid mode transition")

// Transition records a mode change.
type Transition struct {
	Timestamp time.Time
	From      Mode
	To        Mode
	// Altitude is the sample that triggered a trend transition (zero for
	// the launch command).
	Altitude float64
}

// TransitionCounts tracks mode changes since startup.
type TransitionCounts struct {
	Launch  int
	Ascent  int
	Descent int
}

// HeartbeatData contains periodic status information.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Mode      Mode
	Counts    TransitionCounts
}
