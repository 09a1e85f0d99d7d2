// Package telemetry holds the flight's current readings and assembles the
// snapshots handed to persistence. State has a single writer, the control
// loop; background reads reach it as worker results.
package telemetry

import (
	"time"

	"github.com/sweeney/helium/internal/history"
	"github.com/sweeney/helium/internal/nmea"
)

// Value is one reading and when it was taken. OK is false until the first
// successful reading.
type Value struct {
	V  float64
	At time.Time
	OK bool
}

// State is the aggregate telemetry record. Not safe for concurrent use.
type State struct {
	ExteriorTemp     Value // °C
	InteriorTemp     Value // °C
	CPUTemp          Value // °C
	SensorTemp       Value // °C, barometer die
	Humidity         Value // %RH
	Pressure         Value // Pa
	SeaLevelPressure Value // Pa

	Nav          nmea.Aggregate
	BaroAltitude *history.Buffer // meters
	GPSAltitude  *history.Buffer // meters
}

// NewState returns an empty state with altitude windows of the given depth.
func NewState(historySize int) *State {
	return &State{
		BaroAltitude: history.New(historySize),
		GPSAltitude:  history.New(historySize),
	}
}

// Set records v at now.
func (v *Value) Set(x float64, now time.Time) {
	v.V = x
	v.At = now
	v.OK = true
}

// ApplyFix merges a decoded sentence into the navigation aggregate and
// records GPS altitude when the sentence carried one.
func (s *State) ApplyFix(f nmea.Fix) {
	if f.Fields == 0 {
		return
	}
	s.Nav.Apply(f)
	if f.Has(nmea.HasAltitude) {
		s.GPSAltitude.Push(f.Altitude)
	}
}
