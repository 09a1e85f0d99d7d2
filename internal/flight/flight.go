// Package flight is the flight computer's control core. One Computer is
// driven by a single goroutine calling Tick: in Preflight it serves the
// operator console; once launched it runs the job table and listens to the
// GPS whenever the arbiter grants the shared line.
package flight

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/sweeney/helium/internal/arbiter"
	"github.com/sweeney/helium/internal/config"
	"github.com/sweeney/helium/internal/console"
	"github.com/sweeney/helium/internal/gps"
	"github.com/sweeney/helium/internal/logic"
	"github.com/sweeney/helium/internal/nmea"
	"github.com/sweeney/helium/internal/scheduler"
	"github.com/sweeney/helium/internal/sensors"
	"github.com/sweeney/helium/internal/status"
	"github.com/sweeney/helium/internal/telemetry"
	"github.com/sweeney/helium/internal/worker"
)

// Instruments are the sensors the job table reads.
type Instruments struct {
	Pressure        sensors.PressureSensor
	Exterior        sensors.TemperatureProbe
	Interior        sensors.TemperatureProbe
	CPU             sensors.CPUTemperature
	ADC             sensors.HumiditySensor
	Camera          sensors.ImageCapture
	HumidityChannel byte
	ADCTempChannel  byte
}

// Pool runs background reads. *worker.Pool satisfies it.
type Pool interface {
	Submit(worker.Task) error
	Poll() []worker.Result
}

// CommandSource yields operator input without blocking.
// *console.LineConsole satisfies it.
type CommandSource interface {
	ReadCommand() (string, error)
}

// Recorder receives counters for export. *metrics.Collector satisfies it.
type Recorder interface {
	scheduler.Observer
	Sentence(typ string, err error)
	SinkFailed(kind string)
	PoolRejected()
	SetMode(mode int)
	SetGPSOwner(owner int)
	SetAltitude(m float64)
}

// EventFunc publishes a lifecycle event (MODE, HEARTBEAT).
type EventFunc func(now time.Time, event, reason string)

// Options wire a Computer. Instruments, GPS, Mux, Pool and Console are
// required; the rest have usable zero values.
type Options struct {
	FlightID    string
	Version     string
	Instruments Instruments
	GPS         gps.LineReader
	Mux         arbiter.Multiplexer
	Pool        Pool
	Console     CommandSource
	Out         io.Writer // console output
	Sink        telemetry.Sink
	Tracker     *status.Tracker
	Recorder    Recorder
	OnEvent     EventFunc

	// SQLiteVersion backs the sqv console command.
	SQLiteVersion func() (string, error)

	Arbiter      arbiter.Config
	TrendSamples int
	HistorySize  int
	Heartbeat    time.Duration
	Schedule     map[string]config.JobOverride
}

// Computer is the flight computer core. Not safe for concurrent use.
type Computer struct {
	flightID string
	inst     Instruments
	sched    *scheduler.Scheduler
	machine  *logic.Machine
	arb      *arbiter.Arbiter
	state    *telemetry.State
	pool     Pool
	console  CommandSource
	shell    *console.Shell
	sink     telemetry.Sink
	tracker  *status.Tracker
	rec      Recorder
	onEvent  EventFunc
	warn     *rate.Limiter

	now           time.Time // time of the tick in progress
	consoleClosed bool
}

// New builds a Computer in Preflight. It fails with config.ErrInvalid when
// the job table cannot be built.
func New(opts Options, start time.Time) (*Computer, error) {
	if opts.GPS == nil || opts.Mux == nil || opts.Pool == nil || opts.Console == nil {
		return nil, fmt.Errorf("%w: flight: gps, mux, pool and console are required", config.ErrInvalid)
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Sink == nil {
		opts.Sink = telemetry.MultiSink{}
	}
	if opts.Tracker == nil {
		opts.Tracker = status.NewTracker(start, opts.FlightID, status.Config{})
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.OnEvent == nil {
		opts.OnEvent = func(time.Time, string, string) {}
	}

	c := &Computer{
		flightID: opts.FlightID,
		inst:     opts.Instruments,
		sched:    scheduler.New(opts.Recorder),
		machine:  logic.NewMachine(opts.TrendSamples, start),
		arb:      arbiter.New(opts.Mux, opts.GPS, opts.Arbiter),
		state:    telemetry.NewState(opts.HistorySize),
		pool:     opts.Pool,
		console:  opts.Console,
		sink:     opts.Sink,
		tracker:  opts.Tracker,
		rec:      opts.Recorder,
		onEvent:  opts.OnEvent,
		warn:     rate.NewLimiter(rate.Every(10*time.Second), 5),
		now:      start,
	}
	c.shell = console.NewShell(opts.Out, console.Instruments{
		Pressure:        opts.Instruments.Pressure,
		Exterior:        opts.Instruments.Exterior,
		Interior:        opts.Instruments.Interior,
		CPU:             opts.Instruments.CPU,
		ADC:             opts.Instruments.ADC,
		HumidityChannel: opts.Instruments.HumidityChannel,
		ADCTempChannel:  opts.Instruments.ADCTempChannel,
		Capture:         c.captureTestImage,
		SQLiteVersion:   opts.SQLiteVersion,
	}, opts.Version, c.launch)

	if err := c.registerJobs(opts.Schedule, opts.Heartbeat); err != nil {
		return nil, err
	}
	c.report()
	return c, nil
}

// Greet prints the console banner and the first prompt.
func (c *Computer) Greet(now time.Time) {
	c.shell.Banner(now)
	c.shell.Prompt()
}

// Tick advances the computer by one loop iteration. It returns
// console.ErrQuit when the operator quits; every other failure is logged
// and absorbed.
func (c *Computer) Tick(now time.Time) error {
	c.now = now
	c.collect(now)

	var err error
	if c.machine.Mode().InFlight() {
		c.sched.Tick(now)
		c.listen(now)
	} else {
		err = c.command()
	}

	c.report()
	return err
}

// Launch leaves Preflight without going through the console.
func (c *Computer) Launch(now time.Time) error {
	c.now = now
	err := c.launch()
	c.report()
	return err
}

// command handles at most one console line.
func (c *Computer) command() error {
	if c.consoleClosed {
		return nil
	}
	line, err := c.console.ReadCommand()
	switch {
	case errors.Is(err, console.ErrNoInput):
		return nil
	case err != nil:
		if err != io.EOF {
			log.Printf("console: read error: %v", err)
		} else {
			log.Printf("console: input closed")
		}
		c.consoleClosed = true
		return nil
	}

	err = c.shell.Handle(line)
	if errors.Is(err, console.ErrQuit) {
		return err
	}
	if !c.machine.Mode().InFlight() {
		c.shell.Prompt()
	}
	return nil
}

func (c *Computer) launch() error {
	now := c.now
	t, err := c.machine.BeginLaunch(now)
	if err != nil {
		return err
	}
	c.sched.Start(now)
	if err := c.arb.Init(now); err != nil {
		log.Printf("arbiter: route to %s failed: %v", arbiter.GroundTracker, err)
	}
	log.Printf("flight: %s -> %s", t.From, t.To)
	c.emit(now, "MODE", t.To.String())
	return nil
}

func (c *Computer) captureTestImage() error {
	return c.pool.Submit(worker.Task{Name: "test-image", Fn: c.capture})
}

// listen reads one sentence while the flight computer owns the GPS line.
func (c *Computer) listen(now time.Time) {
	r, ok := c.arb.Arbitrate(now)
	if !ok {
		return
	}
	line, err := r.ReadLine()
	if errors.Is(err, gps.ErrTimeout) {
		return
	}
	if err != nil {
		c.warnf(now, "gps: read error: %v", err)
		return
	}

	fix, err := nmea.Parse(line)
	if err != nil {
		c.rec.Sentence("", err)
		c.tracker.CountSentence("", err)
		c.warnf(now, "gps: %v", err)
		return
	}
	if fix.Type == "" {
		return
	}
	c.rec.Sentence(fix.Type, nil)
	c.tracker.CountSentence(fix.Type, nil)
	c.state.ApplyFix(fix)
}

func (c *Computer) report() {
	mode := c.machine.Mode()
	owner := c.arb.Owner()
	c.rec.SetMode(int(mode))
	c.rec.SetGPSOwner(int(owner))
	c.tracker.Update(status.Loop{
		Mode:      mode,
		ModeSince: c.machine.Since(),
		Counts:    c.machine.Counts(),
		GPSOwner:  owner.String(),
		Jobs:      c.sched.Jobs(),
	})
}

// emit refreshes the tracker first so the event sees the new state.
func (c *Computer) emit(now time.Time, event, reason string) {
	c.report()
	c.onEvent(now, event, reason)
}

// warnf logs at most a burst of messages per interval so a dead device
// cannot flood the log.
func (c *Computer) warnf(now time.Time, format string, args ...any) {
	if c.warn.AllowN(now, 1) {
		log.Printf(format, args...)
	}
}

// Mode returns the current flight mode.
func (c *Computer) Mode() logic.Mode {
	return c.machine.Mode()
}

// Owner returns who holds the GPS line.
func (c *Computer) Owner() arbiter.Owner {
	return c.arb.Owner()
}

// Telemetry exposes the telemetry state for inspection. Callers must not
// modify it while the loop is running.
func (c *Computer) Telemetry() *telemetry.State {
	return c.state
}

// Jobs returns the scheduler bookkeeping.
func (c *Computer) Jobs() []scheduler.Info {
	return c.sched.Jobs()
}

type nopRecorder struct{}

func (nopRecorder) JobRan(scheduler.JobID, time.Duration, error) {}
func (nopRecorder) Sentence(string, error)                       {}
func (nopRecorder) SinkFailed(string)                            {}
func (nopRecorder) PoolRejected()                                {}
func (nopRecorder) SetMode(int)                                  {}
func (nopRecorder) SetGPSOwner(int)                              {}
func (nopRecorder) SetAltitude(float64)                          {}
