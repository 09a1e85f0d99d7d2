package flight

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/helium/internal/atmos"
	"github.com/sweeney/helium/internal/config"
	"github.com/sweeney/helium/internal/history"
	"github.com/sweeney/helium/internal/scheduler"
	"github.com/sweeney/helium/internal/sensors"
	"github.com/sweeney/helium/internal/worker"
)

// Job ids. They are stable keys for schedule overrides, metrics and status.
const (
	JobExteriorTemp scheduler.JobID = "ext-temp"
	JobInteriorTemp scheduler.JobID = "int-temp"
	JobCPUTemp      scheduler.JobID = "cpu-temp"
	JobHumidity     scheduler.JobID = "humidity"
	JobBarometer    scheduler.JobID = "barometer"
	JobImage        scheduler.JobID = "image"
	JobSaveSensors  scheduler.JobID = "save-sensors"
	JobSaveFix      scheduler.JobID = "save-fix"
	JobHeartbeat    scheduler.JobID = "heartbeat"
)

type jobSpec struct {
	id       scheduler.JobID
	interval time.Duration
	offset   time.Duration
}

// defaultJobs is the flight job table in execution order. Jobs sharing an
// interval are staggered by a second so one tick never does all the I/O.
var defaultJobs = []jobSpec{
	{JobExteriorTemp, 15 * time.Second, 0},
	{JobInteriorTemp, 15 * time.Second, 1 * time.Second},
	{JobCPUTemp, 15 * time.Second, 2 * time.Second},
	{JobHumidity, 15 * time.Second, 3 * time.Second},
	{JobBarometer, 15 * time.Second, 4 * time.Second},
	{JobImage, 60 * time.Second, 0},
	{JobSaveSensors, 12 * time.Second, 5 * time.Second},
	{JobSaveFix, 5 * time.Second, 2 * time.Second},
	{JobHeartbeat, 15 * time.Minute, 0},
}

// registerJobs builds the job table, applying overrides. An override for an
// id that is not in the table is a configuration error.
func (c *Computer) registerJobs(overrides map[string]config.JobOverride, heartbeat time.Duration) error {
	known := make(map[string]bool, len(defaultJobs))
	for _, j := range defaultJobs {
		known[string(j.id)] = true
	}
	for id := range overrides {
		if !known[id] {
			return fmt.Errorf("%w: schedule: unknown job %q", config.ErrInvalid, id)
		}
	}

	actions := map[scheduler.JobID]scheduler.Action{
		JobExteriorTemp: c.background(JobExteriorTemp, c.readExterior),
		JobInteriorTemp: c.background(JobInteriorTemp, c.readInterior),
		JobCPUTemp:      c.readCPU,
		JobHumidity:     c.readHumidity,
		JobBarometer:    c.readBarometer,
		JobImage:        c.background(JobImage, c.capture),
		JobSaveSensors:  c.saveSensors,
		JobSaveFix:      c.saveFix,
		JobHeartbeat:    c.heartbeat,
	}

	for _, j := range defaultJobs {
		if j.id == JobHeartbeat && heartbeat > 0 {
			j.interval = heartbeat
		}
		if o, ok := overrides[string(j.id)]; ok {
			if o.Interval > 0 {
				j.interval = o.Interval
			}
			if o.Offset > 0 {
				j.offset = o.Offset
			}
		}
		err := c.sched.Register(scheduler.Job{
			ID:       j.id,
			Interval: j.interval,
			Offset:   j.offset,
			Action:   actions[j.id],
		})
		if err != nil {
			return fmt.Errorf("%w: %w", config.ErrInvalid, err)
		}
	}
	return nil
}

// background returns an action that hands read to the worker pool. The
// result is applied by collect on a later tick.
func (c *Computer) background(id scheduler.JobID, read func() (float64, error)) scheduler.Action {
	return func(time.Time) error {
		err := c.pool.Submit(worker.Task{Name: string(id), Fn: read})
		if errors.Is(err, worker.ErrPoolBusy) {
			c.rec.PoolRejected()
		}
		return err
	}
}

func (c *Computer) readExterior() (float64, error) { return c.inst.Exterior.Read() }
func (c *Computer) readInterior() (float64, error) { return c.inst.Interior.Read() }

func (c *Computer) capture() (float64, error) {
	return 0, c.inst.Camera.Capture()
}

// collect applies finished background results. A failed read leaves the
// previous value in place.
func (c *Computer) collect(now time.Time) {
	for _, r := range c.pool.Poll() {
		if r.Err != nil {
			c.warnf(now, "flight: %s failed: %v", r.Name, r.Err)
			continue
		}
		switch scheduler.JobID(r.Name) {
		case JobExteriorTemp:
			c.state.ExteriorTemp.Set(r.Value, now)
		case JobInteriorTemp:
			c.state.InteriorTemp.Set(r.Value, now)
		}
	}
}

func (c *Computer) readCPU(now time.Time) error {
	raw, err := c.inst.CPU.ReadRaw()
	if err != nil {
		return err
	}
	v, err := sensors.CPUCelsius(raw)
	if err != nil {
		return err
	}
	c.state.CPUTemp.Set(v, now)
	return nil
}

func (c *Computer) readHumidity(now time.Time) error {
	raw, err := c.inst.ADC.ReadRawChannel(c.inst.HumidityChannel)
	if err != nil {
		return err
	}
	c.state.Humidity.Set(sensors.RelativeHumidity(raw), now)
	return nil
}

// readBarometer takes pressure, altitude and die temperature together; if
// any read fails none of them is recorded.
func (c *Computer) readBarometer(now time.Time) error {
	sample, err := c.inst.Pressure.Sample()
	if err != nil {
		return err
	}
	p, alt, temp := sample.Pressure, sample.Altitude, sample.Temperature

	c.state.Pressure.Set(p, now)
	c.state.SensorTemp.Set(temp, now)
	c.state.BaroAltitude.Push(alt)
	c.rec.SetAltitude(alt)

	// The exterior reading may be a few seconds old; that is fine.
	if ext := c.state.ExteriorTemp; ext.OK {
		c.state.SeaLevelPressure.Set(atmos.SeaLevelPressure(p, alt, ext.V), now)
	}

	if t, ok := c.machine.ObserveAltitude(alt, now); ok {
		log.Printf("flight: %s -> %s at %.1f m", t.From, t.To, t.Altitude)
		c.emit(now, "MODE", t.To.String())
	}
	return nil
}

func (c *Computer) saveSensors(now time.Time) error {
	snap, err := c.state.SensorSnapshot(now, c.flightID, c.machine.Mode().String())
	if errors.Is(err, history.ErrEmpty) {
		// Nothing worth a row until the barometer has reported.
		return nil
	}
	if err != nil {
		return err
	}
	c.tracker.SetSensors(snap)
	if err := c.sink.PersistSensorSnapshot(snap); err != nil {
		c.rec.SinkFailed("sensors")
		return err
	}
	return nil
}

func (c *Computer) saveFix(now time.Time) error {
	snap, ok := c.state.FixSnapshot(now, c.flightID, c.machine.Mode().String())
	if !ok {
		return nil
	}
	c.tracker.SetFix(snap)
	if err := c.sink.PersistFixSnapshot(snap); err != nil {
		c.rec.SinkFailed("fix")
		return err
	}
	return nil
}

func (c *Computer) heartbeat(now time.Time) error {
	hb := c.machine.Heartbeat(now)
	log.Printf("flight: heartbeat mode=%s uptime=%s", hb.Mode, hb.Uptime.Truncate(time.Second))
	c.emit(now, "HEARTBEAT", "")
	return nil
}
