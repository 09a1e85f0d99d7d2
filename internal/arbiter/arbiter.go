// Package arbiter time-multiplexes the shared GPS serial line between the
// flight computer and the APRS ground tracker.
package arbiter

import (
	"log"
	"time"

	"github.com/sweeney/helium/internal/gps"
)

// Owner is who the multiplexer currently routes the GPS line to.
type Owner int

const (
	GroundTracker Owner = iota
	FlightComputer
)

func (o Owner) String() string {
	if o == FlightComputer {
		return "FLIGHT_COMPUTER"
	}
	return "GROUND_TRACKER"
}

// Multiplexer switches the physical line. Route is a side-effecting
// hardware call and is only issued on an ownership change.
type Multiplexer interface {
	Route(Owner) error
}

// Reference timings: listen for 2s out of every 10s.
const (
	DefaultListen   = 2 * time.Second
	DefaultInterval = 10 * time.Second
)

// Config sets the listen window and how often it opens.
type Config struct {
	Listen   time.Duration
	Interval time.Duration
}

// State is a read-only view of the arbiter.
type State struct {
	Owner     Owner
	Deadline  time.Time // end of the current listen window, zero when released
	NextGrant time.Time
	Grants    int
	Failures  int
}

// Arbiter tracks channel ownership. Not safe for concurrent use.
type Arbiter struct {
	mux Multiplexer
	src gps.LineReader
	cfg Config

	owner       Owner
	deadline    time.Time
	nextGrant   time.Time
	initialized bool
	grants      int
	failures    int
}

// New creates an arbiter. Zero config values take the defaults.
func New(mux Multiplexer, src gps.LineReader, cfg Config) *Arbiter {
	if cfg.Listen <= 0 {
		cfg.Listen = DefaultListen
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Arbiter{mux: mux, src: src, cfg: cfg}
}

// Init routes the line to the tracker and makes the first grant due at now.
func (a *Arbiter) Init(now time.Time) error {
	a.initialized = true
	a.owner = GroundTracker
	a.deadline = time.Time{}
	a.nextGrant = now
	if err := a.mux.Route(GroundTracker); err != nil {
		a.failures++
		return err
	}
	return nil
}

// Arbitrate is called once per tick. It returns the GPS reader and true
// only while the flight computer holds the line; callers read nothing
// otherwise, so reading while not owner cannot happen.
func (a *Arbiter) Arbitrate(now time.Time) (gps.LineReader, bool) {
	if !a.initialized {
		if err := a.Init(now); err != nil {
			log.Printf("arbiter: route to %s failed: %v", GroundTracker, err)
		}
	}

	if a.owner == FlightComputer {
		if now.Before(a.deadline) {
			return a.src, true
		}
		a.release()
		return nil, false
	}

	if now.Before(a.nextGrant) {
		return nil, false
	}

	// The next window is scheduled from this attempt even if the switch
	// fails, so a broken multiplexer is not hammered every tick.
	a.nextGrant = now.Add(a.cfg.Interval)
	if err := a.mux.Route(FlightComputer); err != nil {
		a.failures++
		log.Printf("arbiter: route to %s failed: %v", FlightComputer, err)
		return nil, false
	}
	a.owner = FlightComputer
	a.deadline = now.Add(a.cfg.Listen)
	a.grants++
	if d, ok := a.src.(gps.Discarder); ok {
		d.Discard()
	}
	return a.src, true
}

func (a *Arbiter) release() {
	// The line is treated as released even if the switch fails: the
	// tracker side is the safe default and the next grant retries.
	a.owner = GroundTracker
	a.deadline = time.Time{}
	if err := a.mux.Route(GroundTracker); err != nil {
		a.failures++
		log.Printf("arbiter: route to %s failed: %v", GroundTracker, err)
	}
}

// Owner returns the current owner.
func (a *Arbiter) Owner() Owner {
	return a.owner
}

// State returns a copy of the arbiter's bookkeeping.
func (a *Arbiter) State() State {
	return State{
		Owner:     a.owner,
		Deadline:  a.deadline,
		NextGrant: a.nextGrant,
		Grants:    a.grants,
		Failures:  a.failures,
	}
}
