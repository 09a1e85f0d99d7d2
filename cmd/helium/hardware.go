package main

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/sweeney/helium/internal/arbiter"
	"github.com/sweeney/helium/internal/config"
	"github.com/sweeney/helium/internal/flight"
	"github.com/sweeney/helium/internal/gpio"
	"github.com/sweeney/helium/internal/gps"
	"github.com/sweeney/helium/internal/sensors"
	"github.com/sweeney/helium/internal/worker"
)

// hardware is every device the flight computer talks to. A device that
// fails to open is replaced by one whose reads fail, so the computer still
// flies with whatever is left.
type hardware struct {
	inst    flight.Instruments
	gps     gps.Source
	mux     arbiter.Multiplexer
	closers []io.Closer
}

func openHardware(cfg config.Config) *hardware {
	hw := &hardware{
		inst: flight.Instruments{
			Exterior:        sensors.NewW1Probe(cfg.Sensors.W1Dir, cfg.Sensors.ExteriorProbe),
			Interior:        sensors.NewW1Probe(cfg.Sensors.W1Dir, cfg.Sensors.InteriorProbe),
			CPU:             sensors.ThermalFile{Path: cfg.Sensors.ThermalZone},
			HumidityChannel: cfg.Sensors.HumidityChannel,
			ADCTempChannel:  cfg.Sensors.ADCTempChannel,
		},
	}

	if bus, err := sensors.OpenBus(cfg.Sensors.I2CBus); err != nil {
		log.Printf("sensors: %v", err)
		hw.inst.Pressure = sensors.Unavailable{Cause: err}
		hw.inst.ADC = sensors.Unavailable{Cause: err}
	} else {
		hw.closers = append(hw.closers, bus)
		hw.inst.ADC = sensors.NewADC(bus, cfg.Sensors.ADCAddr)
		if baro, err := sensors.NewBarometer(bus, cfg.Sensors.BarometerAddr); err != nil {
			log.Printf("sensors: %v", err)
			hw.inst.Pressure = sensors.Unavailable{Cause: err}
		} else {
			hw.inst.Pressure = baro
			hw.closers = append(hw.closers, closeFunc(baro.Halt))
		}
	}

	if cfg.Camera.Script == "" {
		hw.inst.Camera = sensors.Unavailable{Cause: errors.New("camera disabled")}
	} else {
		hw.inst.Camera = sensors.NewCamera(cfg.Camera.Script, cfg.Camera.Dir)
	}

	src, err := gps.OpenSerial(gps.SerialConfig{
		Port:        cfg.GPS.Port,
		Baud:        cfg.GPS.Baud,
		ReadTimeout: cfg.GPS.ReadTimeout,
	})
	if err != nil {
		log.Printf("gps: %v", err)
		hw.gps = gps.Unavailable(err)
	} else {
		hw.gps = src
		hw.closers = append(hw.closers, src)
	}

	hw.mux = openMux(cfg.GPIO.Chip, &hw.closers)
	return hw
}

func openMux(chip string, closers *[]io.Closer) arbiter.Multiplexer {
	bank, err := gpio.NewChipBank(chip)
	if err != nil {
		log.Printf("gpio: %v", err)
		return deadMux{err: err}
	}
	*closers = append(*closers, bank)
	mux, err := arbiter.NewBankMux(bank)
	if err != nil {
		log.Printf("gpio: %v", err)
		return deadMux{err: err}
	}
	return mux
}

// Close releases every opened device.
func (hw *hardware) Close() {
	for i := len(hw.closers) - 1; i >= 0; i-- {
		if err := hw.closers[i].Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

// closeFunc adapts a shutdown method such as Halt to io.Closer.
type closeFunc func() error

func (f closeFunc) Close() error { return f() }

// deadMux stands in for a multiplexer whose GPIO bank could not be set
// up. Every route fails, so the arbiter counts failures and the tracker
// keeps the line.
type deadMux struct{ err error }

func (d deadMux) Route(owner arbiter.Owner) error {
	return fmt.Errorf("route %s: %w", owner, d.err)
}

func newPool(cfg config.WorkersConfig) (*worker.Pool, error) {
	pool := worker.NewPool(cfg.Queue)
	if err := pool.Start(cfg.Count); err != nil {
		return nil, fmt.Errorf("start workers: %w", err)
	}
	return pool, nil
}
