package sensors

import (
	"bufio"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRelativeHumidity(t *testing.T) {
	tests := []struct {
		raw  int
		want float64
	}{
		{0, 0},
		{1023, 3.3 / 0.03068},
		{512, (3.3 * 512 / 1023) / 0.03068},
	}
	for _, tt := range tests {
		if got := RelativeHumidity(tt.raw); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("RelativeHumidity(%d) = %f, want %f", tt.raw, got, tt.want)
		}
	}
}

func TestCPUCelsius(t *testing.T) {
	got, err := CPUCelsius("48312\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 48.312 {
		t.Errorf("CPUCelsius = %f, want 48.312", got)
	}

	if _, err := CPUCelsius("hot"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestCombine(t *testing.T) {
	if got := combine(0xFF, 0x03); got != 1023 {
		t.Errorf("combine = %d, want 1023", got)
	}
}

func TestParseW1(t *testing.T) {
	tests := []struct {
		name    string
		report  string
		want    float64
		wantErr bool
	}{
		{
			name:   "valid",
			report: "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=23125\n",
			want:   23.125,
		},
		{
			name:   "negative",
			report: "5e ff 4b 46 7f ff 02 10 3b : crc=3b YES\n5e ff 4b 46 7f ff 02 10 3b t=-10125\n",
			want:   -10.125,
		},
		{
			name:    "crc failure",
			report:  "72 01 4b 46 7f ff 0e 10 57 : crc=00 NO\n72 01 4b 46 7f ff 0e 10 57 t=23125\n",
			wantErr: true,
		},
		{
			name:    "short",
			report:  "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseW1(bufio.NewScanner(strings.NewReader(tt.report)))
			if tt.wantErr {
				if !errors.Is(err, ErrUnavailable) {
					t.Errorf("expected ErrUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestW1ProbeReadsDevicePath(t *testing.T) {
	dir := t.TempDir()
	devDir := filepath.Join(dir, "28-0000025ef092")
	if err := os.MkdirAll(devDir, 0o755); err != nil {
		t.Fatal(err)
	}
	report := "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=-41500\n"
	if err := os.WriteFile(filepath.Join(devDir, "w1_slave"), []byte(report), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewW1Probe(dir, "0000025ef092").Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -41.5 {
		t.Errorf("got %f, want -41.5", got)
	}

	if _, err := NewW1Probe(dir, "missing").Read(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for missing probe, got %v", err)
	}
}

func TestThermalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp")
	if err := os.WriteFile(path, []byte("51540\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	raw, err := ThermalFile{Path: path}.ReadRaw()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, err := CPUCelsius(raw)
	if err != nil || c != 51.54 {
		t.Errorf("CPUCelsius(%q) = %f, %v", raw, c, err)
	}
}

func TestCameraRenamesCapture(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "IMG_0042.JPG"), []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	cam := NewCamera("captphoto.sh", dir)
	cam.now = func() time.Time { return time.Date(2024, 6, 1, 9, 5, 7, 0, time.UTC) }
	cam.run = func(context.Context, string) ([]byte, error) {
		return []byte("Saving file as IMG_0042.JPG\n"), nil
	}

	path, err := cam.capture()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, "2024_06_01_09_05_07.jpg")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
}

func TestCameraNoImageReported(t *testing.T) {
	cam := NewCamera("captphoto.sh", t.TempDir())
	cam.run = func(context.Context, string) ([]byte, error) {
		return []byte("*** Error: No camera found. ***"), nil
	}
	if err := cam.Capture(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestFakePressureSampleIsOneRead(t *testing.T) {
	f := &FakePressure{}
	f.Set(90000, 1000, 20)

	s, err := f.Sample()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != (BaroSample{Pressure: 90000, Altitude: 1000, Temperature: 20}) {
		t.Errorf("Sample() = %+v", s)
	}
	if f.Reads != 1 {
		t.Errorf("Reads = %d, want 1", f.Reads)
	}

	f.SetErr(ErrUnavailable)
	if _, err := f.Sample(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Sample err = %v", err)
	}
}

func TestUnavailable(t *testing.T) {
	u := Unavailable{Cause: errors.New("no bus")}

	var p PressureSensor = u
	var probe TemperatureProbe = u
	var h HumiditySensor = u
	var c CPUTemperature = u
	var cam ImageCapture = u

	if _, err := p.ReadPressure(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ReadPressure err = %v", err)
	}
	if _, err := p.Sample(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Sample err = %v", err)
	}
	if _, err := probe.Read(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Read err = %v", err)
	}
	if _, err := h.ReadRawChannel(2); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ReadRawChannel err = %v", err)
	}
	if _, err := c.ReadRaw(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ReadRaw err = %v", err)
	}
	if err := cam.Capture(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Capture err = %v", err)
	}
}
