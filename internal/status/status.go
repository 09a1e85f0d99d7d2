// Package status provides a thread-safe status tracker for the flight computer.
// The control loop writes it; HTTP handlers and lifecycle events read it.
package status

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/sweeney/helium/internal/logic"
	"github.com/sweeney/helium/internal/scheduler"
	"github.com/sweeney/helium/internal/telemetry"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs       int64
	HeartbeatMs  int64
	ListenMs     int64
	GrantMs      int64
	TrendSamples int
	Broker       string
	HTTPAddr     string
	StorePath    string
}

// Loop is what the control loop reports on every tick.
type Loop struct {
	Mode      logic.Mode
	ModeSince time.Time
	Counts    logic.TransitionCounts
	GPSOwner  string
	Jobs      []scheduler.Info
}

// Snapshot is a point-in-time view of flight computer state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Loop
	FlightID       string
	Sensors        *telemetry.SensorSnapshot
	Fix            *telemetry.FixSnapshot
	Sentences      map[string]int
	SentenceErrors int
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	MQTTBuffered   int
	Network        *NetworkInfo
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, flightID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			FlightID:  flightID,
			StartTime: startTime,
			Config:    cfg,
			Sentences: make(map[string]int),
		},
	}
}

// Update records mode, arbiter and scheduler state.
// Called from runLoop on every tick.
func (t *Tracker) Update(l Loop) {
	t.mu.Lock()
	t.snap.Loop = l
	t.mu.Unlock()
}

// SetSensors records the latest sensor row.
func (t *Tracker) SetSensors(s telemetry.SensorSnapshot) {
	t.mu.Lock()
	t.snap.Sensors = &s
	t.mu.Unlock()
}

// SetFix records the latest fix row.
func (t *Tracker) SetFix(f telemetry.FixSnapshot) {
	t.mu.Lock()
	t.snap.Fix = &f
	t.mu.Unlock()
}

// CountSentence tallies a decoded sentence by type, or a failure.
func (t *Tracker) CountSentence(typ string, err error) {
	t.mu.Lock()
	if err != nil {
		t.snap.SentenceErrors++
	} else {
		t.snap.Sentences[typ]++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetMQTTBuffered sets how many messages are waiting for the broker.
func (t *Tracker) SetMQTTBuffered(n int) {
	t.mu.Lock()
	t.snap.MQTTBuffered = n
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Sentences = maps.Clone(t.snap.Sentences)
	s.Jobs = slices.Clone(t.snap.Jobs)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
