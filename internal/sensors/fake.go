package sensors

import "sync"

// FakePressure is a test double for PressureSensor.
type FakePressure struct {
	mu          sync.Mutex
	Pressure    float64
	Altitude    float64
	Temperature float64
	Err         error
	Reads       int
}

// Set replaces the scripted values.
func (f *FakePressure) Set(pressure, altitude, temperature float64) {
	f.mu.Lock()
	f.Pressure, f.Altitude, f.Temperature = pressure, altitude, temperature
	f.mu.Unlock()
}

// SetErr makes every read fail with err (nil restores normal reads).
func (f *FakePressure) SetErr(err error) {
	f.mu.Lock()
	f.Err = err
	f.mu.Unlock()
}

func (f *FakePressure) read(v *float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads++
	if f.Err != nil {
		return 0, f.Err
	}
	return *v, nil
}

func (f *FakePressure) ReadPressure() (float64, error)    { return f.read(&f.Pressure) }
func (f *FakePressure) ReadAltitude() (float64, error)    { return f.read(&f.Altitude) }
func (f *FakePressure) ReadTemperature() (float64, error) { return f.read(&f.Temperature) }

// Sample returns the three scripted values as one read.
func (f *FakePressure) Sample() (BaroSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads++
	if f.Err != nil {
		return BaroSample{}, f.Err
	}
	return BaroSample{Pressure: f.Pressure, Altitude: f.Altitude, Temperature: f.Temperature}, nil
}

// FakeProbe is a test double for TemperatureProbe. It is safe to read from
// a background worker.
type FakeProbe struct {
	mu    sync.Mutex
	value float64
	err   error
}

// NewFakeProbe returns a probe reporting celsius.
func NewFakeProbe(celsius float64) *FakeProbe {
	return &FakeProbe{value: celsius}
}

// Set changes the reported value and error.
func (f *FakeProbe) Set(celsius float64, err error) {
	f.mu.Lock()
	f.value, f.err = celsius, err
	f.mu.Unlock()
}

// Read returns the scripted value.
func (f *FakeProbe) Read() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// FakeADC is a test double for HumiditySensor.
type FakeADC struct {
	Channels map[byte]int
	Err      error
}

// ReadRawChannel returns the scripted channel value (0 if unset).
func (f *FakeADC) ReadRawChannel(ch byte) (int, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Channels[ch], nil
}

// FakeCPU is a test double for CPUTemperature.
type FakeCPU struct {
	Raw string
	Err error
}

// ReadRaw returns the scripted reading.
func (f FakeCPU) ReadRaw() (string, error) {
	return f.Raw, f.Err
}

// FakeCamera counts captures.
type FakeCamera struct {
	mu       sync.Mutex
	captures int
	Err      error
}

// Capture records the call.
func (f *FakeCamera) Capture() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures++
	return f.Err
}

// Captures returns how many times Capture was called.
func (f *FakeCamera) Captures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.captures
}
