// Package console is the preflight operator shell: a fixed table of short
// commands for checking instruments before launch.
package console

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUnrecognized is returned by Parse for input outside the command table.
	ErrUnrecognized = errors.New("console: unrecognized command")
	// ErrQuit is returned by Execute for the quit command.
	ErrQuit = errors.New("console: quit")
	// ErrNoInput is returned by ReadCommand when no line is waiting.
	ErrNoInput = errors.New("console: no input")
)

// Kind identifies a console command.
type Kind int

const (
	Help Kind = iota + 1
	PrintAltitude
	PrintPressure
	SeaLevelPressure
	PrintExteriorTemp
	PrintInteriorTemp
	PrintCPUTemp
	PrintADCTemp
	PrintHumidity
	PrintSQLiteVersion
	CaptureTestImage
	StartLaunch
	PrintVersion
	Quit
)

// Command is a parsed console line. Altitude and Temperature are only set
// for SeaLevelPressure.
type Command struct {
	Kind        Kind
	Altitude    float64 // meters
	Temperature float64 // °C
}

type entry struct {
	word  string
	usage string
	kind  Kind
	help  string
}

// table is the command surface in help order. slp takes arguments and is
// matched by slpPattern instead of by word.
var table = []entry{
	{"help", "help", Help, "Print this list"},
	{"pa", "pa", PrintAltitude, "Print altitude in meters"},
	{"pp", "pp", PrintPressure, "Print barometric pressure in pascal"},
	{"slp", "slp n t", SeaLevelPressure, "Print sea-level pressure for given altitude (m) & temp (C)"},
	{"pte", "pte", PrintExteriorTemp, "Print external temperature in degrees C"},
	{"pti", "pti", PrintInteriorTemp, "Print internal temperature in degrees C"},
	{"pct", "pct", PrintCPUTemp, "Print CPU temperature in degrees C"},
	{"pat", "pat", PrintADCTemp, "Print ADC temperature"},
	{"prh", "prh", PrintHumidity, "Print relative humidity in %"},
	{"cap", "cap", CaptureTestImage, "Capture test image from camera"},
	{"sqv", "sqv", PrintSQLiteVersion, "Print the sqlite version"},
	{"start", "start", StartLaunch, "Start launch sequence"},
	{"v", "v", PrintVersion, "Print software version"},
	{"quit", "quit", Quit, "Exit the helium shell"},
}

var slpPattern = regexp.MustCompile(`^slp\s+(-?\d+(?:\.\d+)?)\s+(-?\d+(?:\.\d+)?)$`)

// Parse resolves one input line against the command table.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)

	if m := slpPattern.FindStringSubmatch(line); m != nil {
		alt, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %q", ErrUnrecognized, line)
		}
		temp, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %q", ErrUnrecognized, line)
		}
		return Command{Kind: SeaLevelPressure, Altitude: alt, Temperature: temp}, nil
	}

	if line == "x" {
		return Command{Kind: Quit}, nil
	}
	for _, e := range table {
		if e.word == line && e.kind != SeaLevelPressure {
			return Command{Kind: e.kind}, nil
		}
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnrecognized, line)
}

func (k Kind) String() string {
	for _, e := range table {
		if e.kind == k {
			return e.word
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}
