// Package sensors defines the narrow read contracts the flight loop needs
// from its instruments, with periph/sysfs-backed implementations and fakes.
//
// Every read is synchronous and expected to return promptly. A failed read
// wraps ErrUnavailable; callers keep the last known value and carry on.
package sensors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnavailable marks a reading that could not be taken this time.
var ErrUnavailable = errors.New("sensor unavailable")

// PressureSensor is the barometric altimeter. Sample reports all three
// quantities from one conversion; the single reads serve the console.
type PressureSensor interface {
	ReadPressure() (float64, error)    // pascals
	ReadAltitude() (float64, error)    // meters
	ReadTemperature() (float64, error) // celsius, die temperature
	Sample() (BaroSample, error)
}

// BaroSample is one barometer conversion.
type BaroSample struct {
	Pressure    float64 // pascals
	Altitude    float64 // meters
	Temperature float64 // celsius
}

// TemperatureProbe is a one-shot thermometer (exterior/interior).
type TemperatureProbe interface {
	Read() (float64, error) // celsius
}

// HumiditySensor exposes the raw ADC channel the humidity sensor sits on.
type HumiditySensor interface {
	ReadRawChannel(ch byte) (int, error)
}

// CPUTemperature returns the SoC temperature in raw millidegrees.
type CPUTemperature interface {
	ReadRaw() (string, error)
}

// ImageCapture takes a photograph and stores it.
type ImageCapture interface {
	Capture() error
}

// RelativeHumidity converts a 10-bit ADC reading (3.3V reference) into
// percent relative humidity for a 30.68 mV/%RH sensor.
func RelativeHumidity(raw int) float64 {
	volts := 3.3 * float64(raw) / 1023.0
	return volts / 0.03068
}

// CPUCelsius converts a thermal-zone reading such as "48312\n" to degrees.
func CPUCelsius(raw string) (float64, error) {
	milli, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: cpu temperature %q", ErrUnavailable, raw)
	}
	return milli / 1000.0, nil
}

// Unavailable stands in for any instrument that failed to initialise.
// Every read fails with ErrUnavailable wrapping cause.
type Unavailable struct {
	Cause error
}

func (u Unavailable) err() error {
	return fmt.Errorf("%w: %v", ErrUnavailable, u.Cause)
}

func (u Unavailable) ReadPressure() (float64, error)    { return 0, u.err() }
func (u Unavailable) ReadAltitude() (float64, error)    { return 0, u.err() }
func (u Unavailable) ReadTemperature() (float64, error) { return 0, u.err() }
func (u Unavailable) Sample() (BaroSample, error)       { return BaroSample{}, u.err() }
func (u Unavailable) ReadRawChannel(byte) (int, error)  { return 0, u.err() }
func (u Unavailable) Read() (float64, error)            { return 0, u.err() }
func (u Unavailable) Capture() error                    { return u.err() }
func (u Unavailable) ReadRaw() (string, error)          { return "", u.err() }
