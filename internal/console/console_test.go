package console

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/helium/internal/sensors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"help", Command{Kind: Help}},
		{"pa", Command{Kind: PrintAltitude}},
		{"  pp  ", Command{Kind: PrintPressure}},
		{"pte", Command{Kind: PrintExteriorTemp}},
		{"pti", Command{Kind: PrintInteriorTemp}},
		{"pct", Command{Kind: PrintCPUTemp}},
		{"pat", Command{Kind: PrintADCTemp}},
		{"prh", Command{Kind: PrintHumidity}},
		{"sqv", Command{Kind: PrintSQLiteVersion}},
		{"cap", Command{Kind: CaptureTestImage}},
		{"start", Command{Kind: StartLaunch}},
		{"v", Command{Kind: PrintVersion}},
		{"quit", Command{Kind: Quit}},
		{"x", Command{Kind: Quit}},
		{"slp 1500 -5", Command{Kind: SeaLevelPressure, Altitude: 1500, Temperature: -5}},
		{"slp 120.5   21.25", Command{Kind: SeaLevelPressure, Altitude: 120.5, Temperature: 21.25}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.line)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.line, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestParseUnrecognized(t *testing.T) {
	for _, line := range []string{"", "PA", "launch", "slp", "slp 100", "slp abc 10", "slp n t", "pa 1"} {
		if _, err := Parse(line); !errors.Is(err, ErrUnrecognized) {
			t.Errorf("Parse(%q) err = %v, want ErrUnrecognized", line, err)
		}
	}
}

func TestKindString(t *testing.T) {
	if got := SeaLevelPressure.String(); got != "slp" {
		t.Errorf("got %q, want slp", got)
	}
	if got := Kind(99).String(); got != "Kind(99)" {
		t.Errorf("got %q", got)
	}
}

type harness struct {
	out      bytes.Buffer
	pressure *sensors.FakePressure
	ext      *sensors.FakeProbe
	adc      *sensors.FakeADC
	camera   *sensors.FakeCamera
	launched int
	shell    *Shell
}

func newHarness() *harness {
	h := &harness{
		pressure: &sensors.FakePressure{Pressure: 101325, Altitude: 1234.567, Temperature: 21},
		ext:      sensors.NewFakeProbe(-3.456),
		adc:      &sensors.FakeADC{Channels: map[byte]int{2: 1023, 0x3F: 512}},
		camera:   &sensors.FakeCamera{},
	}
	inst := Instruments{
		Pressure:        h.pressure,
		Exterior:        h.ext,
		Interior:        sensors.NewFakeProbe(20),
		CPU:             sensors.FakeCPU{Raw: "48312\n"},
		ADC:             h.adc,
		HumidityChannel: 2,
		ADCTempChannel:  0x3F,
		Capture:         h.camera.Capture,
		SQLiteVersion:   func() (string, error) { return "3.46.0", nil },
	}
	h.shell = NewShell(&h.out, inst, "0.1.0", func() error {
		h.launched++
		return nil
	})
	return h
}

func (h *harness) run(t *testing.T, line string) string {
	t.Helper()
	h.out.Reset()
	if err := h.shell.Handle(line); err != nil {
		t.Fatalf("Handle(%q) error: %v", line, err)
	}
	return h.out.String()
}

func TestShellPrintsReadings(t *testing.T) {
	h := newHarness()
	tests := []struct {
		line string
		want string
	}{
		{"pa", "1234.57\n"},
		{"pp", "101325.00\n"},
		{"pte", "-3.46\n"},
		{"pti", "20.00\n"},
		{"pct", "48.31\n"},
		{"pat", "512\n"},
		{"prh", "107.56\n"},
		{"sqv", "3.46.0\n"},
		{"v", "0.1.0\n"},
		{"slp 0 15", "1013.25\n"},
	}
	for _, tt := range tests {
		if got := h.run(t, tt.line); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestShellUnrecognizedChangesNothing(t *testing.T) {
	h := newHarness()
	got := h.run(t, "launch now")
	if got != "UNRECOGNIZED CMD.  Try 'help' for usage\n" {
		t.Errorf("got %q", got)
	}
	if h.launched != 0 {
		t.Error("unrecognized command must not launch")
	}
	if got := h.run(t, "   "); got != "" {
		t.Errorf("blank line printed %q", got)
	}
}

func TestShellSensorFailurePrintsError(t *testing.T) {
	h := newHarness()
	h.pressure.SetErr(errors.New("bmp nack"))

	got := h.run(t, "pa")
	if !strings.HasPrefix(got, "ERROR | ") {
		t.Errorf("got %q, want ERROR prefix", got)
	}
	got = h.run(t, "slp 100 10")
	if !strings.HasPrefix(got, "ERROR | ") {
		t.Errorf("got %q, want ERROR prefix", got)
	}
}

func TestShellStartAndQuit(t *testing.T) {
	h := newHarness()
	if got := h.run(t, "start"); got != "Starting run sequence\n" {
		t.Errorf("got %q", got)
	}
	if h.launched != 1 {
		t.Errorf("launched = %d, want 1", h.launched)
	}

	if err := h.shell.Handle("quit"); !errors.Is(err, ErrQuit) {
		t.Errorf("quit err = %v, want ErrQuit", err)
	}
}

func TestShellLaunchFailure(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("already launched")
	s := NewShell(&out, Instruments{}, "0.1.0", func() error { return boom })

	if err := s.Handle("start"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if strings.Contains(out.String(), "Starting run sequence") {
		t.Error("failed launch must not announce the run sequence")
	}
}

func TestShellCapture(t *testing.T) {
	h := newHarness()
	h.run(t, "cap")
	if h.camera.Captures() != 1 {
		t.Errorf("captures = %d, want 1", h.camera.Captures())
	}
}

func TestShellHelpListsEveryCommand(t *testing.T) {
	h := newHarness()
	got := h.run(t, "help")
	for _, e := range table {
		if !strings.Contains(got, e.usage+"\t") {
			t.Errorf("help missing %q", e.usage)
		}
	}
}

func TestShellBannerAndPrompt(t *testing.T) {
	h := newHarness()
	h.shell.Banner(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	h.shell.Prompt()
	got := h.out.String()
	if !strings.HasPrefix(got, "WELCOME TO HELIUM VERSION 0.1.0\n") {
		t.Errorf("banner = %q", got)
	}
	if !strings.Contains(got, "The time is 2024-06-01 09:00:00 UTC\n") {
		t.Errorf("banner = %q", got)
	}
	if !strings.HasSuffix(got, Prompt) {
		t.Errorf("prompt missing: %q", got)
	}
}

func TestLineConsole(t *testing.T) {
	c := NewLineConsole(strings.NewReader("pa\nstart\n"))

	var got []string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		line, err := c.ReadCommand()
		if errors.Is(err, ErrNoInput) {
			time.Sleep(time.Millisecond)
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, line)
	}
	if len(got) != 2 || got[0] != "pa" || got[1] != "start" {
		t.Errorf("got %q", got)
	}
}

func TestLineConsoleNoInput(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	c := NewLineConsole(r)

	if _, err := c.ReadCommand(); !errors.Is(err, ErrNoInput) {
		t.Errorf("err = %v, want ErrNoInput", err)
	}
}
