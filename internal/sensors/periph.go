package sensors

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/sweeney/helium/internal/atmos"
)

// Default I2C addresses on the flight board.
const (
	BarometerAddr = 0x77
	ADCAddr       = 0x26
)

// Bus is an opened I2C bus shared by the periph-backed devices.
type Bus struct {
	bus i2c.BusCloser
}

// OpenBus initialises the periph host drivers and opens an I2C bus by name
// ("" selects the first one, "1" is the Pi header bus).
func OpenBus(name string) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", name, err)
	}
	return &Bus{bus: b}, nil
}

// Close releases the bus.
func (b *Bus) Close() error {
	return b.bus.Close()
}

// Barometer is a BMP180/BMP280 read through periph's bmxx80 driver.
type Barometer struct {
	mu       sync.Mutex
	dev      *bmxx80.Dev
	seaLevel float64
}

// NewBarometer probes the device at addr. Altitude is computed against the
// standard sea-level pressure.
func NewBarometer(b *Bus, addr uint16) (*Barometer, error) {
	dev, err := bmxx80.NewI2C(b.bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("bmxx80 init @0x%x: %w", addr, err)
	}
	return &Barometer{dev: dev, seaLevel: atmos.StandardSeaLevel}, nil
}

func (b *Barometer) sense() (physic.Env, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return physic.Env{}, fmt.Errorf("bmxx80 sense: %w: %w", ErrUnavailable, err)
	}
	return e, nil
}

// Sample takes one conversion. Altitude is derived from the same pressure.
func (b *Barometer) Sample() (BaroSample, error) {
	e, err := b.sense()
	if err != nil {
		return BaroSample{}, err
	}
	p := float64(e.Pressure) / float64(physic.Pascal)
	return BaroSample{
		Pressure:    p,
		Altitude:    atmos.Altitude(p, b.seaLevel),
		Temperature: e.Temperature.Celsius(),
	}, nil
}

// ReadPressure returns pascals.
func (b *Barometer) ReadPressure() (float64, error) {
	s, err := b.Sample()
	return s.Pressure, err
}

// ReadAltitude returns meters above the standard sea-level pressure surface.
func (b *Barometer) ReadAltitude() (float64, error) {
	s, err := b.Sample()
	return s.Altitude, err
}

// ReadTemperature returns the die temperature in celsius.
func (b *Barometer) ReadTemperature() (float64, error) {
	s, err := b.Sample()
	return s.Temperature, err
}

// Halt stops the device.
func (b *Barometer) Halt() error {
	return b.dev.Halt()
}

// ADC reads 16-bit little-endian channel registers from the board's
// analogue converter.
type ADC struct {
	mu  sync.Mutex
	dev *i2c.Dev
}

// NewADC binds the converter at addr.
func NewADC(b *Bus, addr uint16) *ADC {
	return &ADC{dev: &i2c.Dev{Addr: addr, Bus: b.bus}}
}

// ReadRawChannel reads the two-byte register for ch.
func (a *ADC) ReadRawChannel(ch byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := make([]byte, 2)
	if err := a.dev.Tx([]byte{ch}, r); err != nil {
		return 0, fmt.Errorf("adc channel 0x%02x: %w: %w", ch, ErrUnavailable, err)
	}
	return combine(r[0], r[1]), nil
}

func combine(lo, hi byte) int {
	return int(lo) | int(hi)<<8
}
