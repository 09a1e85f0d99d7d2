// Package scheduler runs periodic jobs cooperatively on the caller's
// goroutine. Time is always passed in; the package never sleeps.
package scheduler

import (
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	// ErrDuplicateJob is returned by Register for an id already in the table.
	ErrDuplicateJob = errors.New("scheduler: duplicate job id")
	// ErrInvalidInterval is returned by Register for a non-positive interval
	// or a nil action.
	ErrInvalidInterval = errors.New("scheduler: invalid job")
)

// JobID is the stable key of a job in the table.
type JobID string

// Action is the body of a job. now is the tick time that fired it.
type Action func(now time.Time) error

// Job describes one periodic job.
type Job struct {
	ID       JobID
	Interval time.Duration
	// Offset shifts the first due time relative to Start so jobs that share
	// an interval do not all land on the same tick.
	Offset time.Duration
	Action Action
}

// Observer is told about every job invocation.
type Observer interface {
	JobRan(id JobID, took time.Duration, err error)
}

// Info is a read-only view of one job's bookkeeping.
type Info struct {
	ID       JobID
	Interval time.Duration
	LastRun  time.Time
	Runs     int
	Failures int
}

type entry struct {
	job      Job
	lastRun  time.Time
	runs     int
	failures int
}

// Scheduler holds the job table. It is not safe for concurrent use: all
// calls come from the control loop.
type Scheduler struct {
	jobs    []*entry
	byID    map[JobID]*entry
	obs     Observer
	started bool
}

// New creates an empty scheduler. obs may be nil.
func New(obs Observer) *Scheduler {
	return &Scheduler{
		byID: make(map[JobID]*entry),
		obs:  obs,
	}
}

// Register appends a job to the table. Registration order is execution
// order within a tick.
func (s *Scheduler) Register(j Job) error {
	if j.Interval <= 0 || j.Action == nil {
		return fmt.Errorf("%w: %q interval=%v", ErrInvalidInterval, j.ID, j.Interval)
	}
	if _, ok := s.byID[j.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateJob, j.ID)
	}
	// A job registered after Start is anchored by its first Tick.
	e := &entry{job: j}
	s.jobs = append(s.jobs, e)
	s.byID[j.ID] = e
	return nil
}

// Start anchors every job at now+Offset. A job first fires once a full
// interval has elapsed from its anchor.
func (s *Scheduler) Start(now time.Time) {
	for _, e := range s.jobs {
		e.lastRun = now.Add(e.job.Offset)
	}
	s.started = true
}

// Started reports whether Start (or an implicit start by Tick) has happened.
func (s *Scheduler) Started() bool {
	return s.started
}

// Tick runs every due job once, in registration order, and returns the ids
// that ran. A job is due when now-lastRun >= interval; after running (even
// if it failed) lastRun becomes now, so a delayed loop never bursts.
func (s *Scheduler) Tick(now time.Time) []JobID {
	if !s.started {
		s.Start(now)
	}
	var ran []JobID
	for _, e := range s.jobs {
		if e.lastRun.IsZero() {
			e.lastRun = now.Add(e.job.Offset)
		}
		if now.Sub(e.lastRun) < e.job.Interval {
			continue
		}
		s.run(e, now)
		ran = append(ran, e.job.ID)
	}
	return ran
}

func (s *Scheduler) run(e *entry, now time.Time) {
	start := time.Now()
	err := e.job.Action(now)
	took := time.Since(start)

	e.lastRun = now
	e.runs++
	if err != nil {
		e.failures++
		log.Printf("scheduler: job %s failed: %v", e.job.ID, err)
	}
	if s.obs != nil {
		s.obs.JobRan(e.job.ID, took, err)
	}
}

// Jobs returns bookkeeping for every job in registration order.
func (s *Scheduler) Jobs() []Info {
	out := make([]Info, 0, len(s.jobs))
	for _, e := range s.jobs {
		out = append(out, Info{
			ID:       e.job.ID,
			Interval: e.job.Interval,
			LastRun:  e.lastRun,
			Runs:     e.runs,
			Failures: e.failures,
		})
	}
	return out
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.jobs)
}
