package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sweeney/helium/internal/atmos"
	"github.com/sweeney/helium/internal/sensors"
)

// Prompt is printed before each console read.
const Prompt = "HELIUM> "

// Instruments are what the shell can query.
type Instruments struct {
	Pressure        sensors.PressureSensor
	Exterior        sensors.TemperatureProbe
	Interior        sensors.TemperatureProbe
	CPU             sensors.CPUTemperature
	ADC             sensors.HumiditySensor
	HumidityChannel byte
	ADCTempChannel  byte

	// Capture queues a test image; it must not block.
	Capture func() error
	// SQLiteVersion reports the storage engine version.
	SQLiteVersion func() (string, error)
}

// Shell executes console commands, writing results to out.
type Shell struct {
	out     io.Writer
	inst    Instruments
	version string
	launch  func() error
}

// NewShell creates a shell. launch is called for the start command.
func NewShell(out io.Writer, inst Instruments, version string, launch func() error) *Shell {
	return &Shell{out: out, inst: inst, version: version, launch: launch}
}

// Banner prints the welcome text.
func (s *Shell) Banner(now time.Time) {
	fmt.Fprintf(s.out, "WELCOME TO HELIUM VERSION %s\n\n", s.version)
	fmt.Fprintf(s.out, "The time is %s UTC\n", now.UTC().Format("2006-01-02 15:04:05"))
}

// Prompt prints the input prompt.
func (s *Shell) Prompt() {
	fmt.Fprint(s.out, Prompt)
}

// Handle parses and executes one line. Unrecognized input prints a hint
// and changes nothing. Blank lines are ignored.
func (s *Shell) Handle(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	cmd, err := Parse(line)
	if err != nil {
		fmt.Fprintln(s.out, "UNRECOGNIZED CMD.  Try 'help' for usage")
		return nil
	}
	return s.Execute(cmd)
}

// Execute runs a parsed command. Instrument failures are printed, not
// returned. It returns ErrQuit for Quit and the launch error for StartLaunch.
func (s *Shell) Execute(cmd Command) error {
	switch cmd.Kind {
	case Help:
		for _, e := range table {
			fmt.Fprintf(s.out, "%s\t%s\n", e.usage, e.help)
		}
	case PrintAltitude:
		s.printFloat(s.inst.Pressure.ReadAltitude())
	case PrintPressure:
		s.printFloat(s.inst.Pressure.ReadPressure())
	case SeaLevelPressure:
		p, err := s.inst.Pressure.ReadPressure()
		if err != nil {
			s.printErr(err)
			return nil
		}
		// The shell works in hPa.
		s.printFloat(atmos.SeaLevelPressure(p/100, cmd.Altitude, cmd.Temperature), nil)
	case PrintExteriorTemp:
		s.printFloat(s.inst.Exterior.Read())
	case PrintInteriorTemp:
		s.printFloat(s.inst.Interior.Read())
	case PrintCPUTemp:
		raw, err := s.inst.CPU.ReadRaw()
		if err != nil {
			s.printErr(err)
			return nil
		}
		s.printFloat(sensors.CPUCelsius(raw))
	case PrintADCTemp:
		v, err := s.inst.ADC.ReadRawChannel(s.inst.ADCTempChannel)
		if err != nil {
			s.printErr(err)
			return nil
		}
		fmt.Fprintln(s.out, v)
	case PrintHumidity:
		raw, err := s.inst.ADC.ReadRawChannel(s.inst.HumidityChannel)
		if err != nil {
			s.printErr(err)
			return nil
		}
		s.printFloat(sensors.RelativeHumidity(raw), nil)
	case PrintSQLiteVersion:
		if s.inst.SQLiteVersion == nil {
			s.printErr(sensors.ErrUnavailable)
			return nil
		}
		v, err := s.inst.SQLiteVersion()
		if err != nil {
			s.printErr(err)
			return nil
		}
		fmt.Fprintln(s.out, v)
	case CaptureTestImage:
		if s.inst.Capture == nil {
			s.printErr(sensors.ErrUnavailable)
			return nil
		}
		if err := s.inst.Capture(); err != nil {
			s.printErr(err)
		}
	case StartLaunch:
		if err := s.launch(); err != nil {
			s.printErr(err)
			return err
		}
		fmt.Fprintln(s.out, "Starting run sequence")
	case PrintVersion:
		fmt.Fprintln(s.out, s.version)
	case Quit:
		return ErrQuit
	default:
		fmt.Fprintln(s.out, "UNRECOGNIZED CMD.  Try 'help' for usage")
	}
	return nil
}

func (s *Shell) printFloat(v float64, err error) {
	if err != nil {
		s.printErr(err)
		return
	}
	fmt.Fprintf(s.out, "%0.2f\n", v)
}

func (s *Shell) printErr(err error) {
	fmt.Fprintf(s.out, "ERROR | %v\n", err)
}
