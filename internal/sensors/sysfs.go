package sensors

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults for the Pi's sysfs sources.
const (
	W1Devices   = "/sys/bus/w1/devices"
	ThermalZone = "/sys/class/thermal/thermal_zone0/temp"

	// DS18B20 family code.
	familyDS18B20 = "28"
)

// W1Probe reads a DS18B20 through the w1-therm kernel driver.
type W1Probe struct {
	path string
}

// NewW1Probe returns a probe for the device with the given serial
// (e.g. "0000025ef092"). dir is the w1 devices directory.
func NewW1Probe(dir, serial string) *W1Probe {
	if dir == "" {
		dir = W1Devices
	}
	return &W1Probe{path: filepath.Join(dir, familyDS18B20+"-"+serial, "w1_slave")}
}

// Read parses the two-line w1_slave report:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func (p *W1Probe) Read() (float64, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return 0, fmt.Errorf("w1 probe: %w: %w", ErrUnavailable, err)
	}
	defer f.Close()
	return parseW1(bufio.NewScanner(f))
}

func parseW1(sc *bufio.Scanner) (float64, error) {
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("w1 probe: %w: %w", ErrUnavailable, err)
	}
	if len(lines) < 2 {
		return 0, fmt.Errorf("w1 probe: %w: short report", ErrUnavailable)
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, fmt.Errorf("w1 probe: %w: crc check failed", ErrUnavailable)
	}
	i := strings.Index(lines[1], "t=")
	if i < 0 {
		return 0, fmt.Errorf("w1 probe: %w: no temperature field", ErrUnavailable)
	}
	milli, err := strconv.Atoi(strings.TrimSpace(lines[1][i+2:]))
	if err != nil {
		return 0, fmt.Errorf("w1 probe: %w: %v", ErrUnavailable, err)
	}
	return float64(milli) / 1000.0, nil
}

// ThermalFile reads the SoC temperature from a thermal-zone file.
type ThermalFile struct {
	Path string
}

// ReadRaw returns the file contents (millidegrees).
func (t ThermalFile) ReadRaw() (string, error) {
	path := t.Path
	if path == "" {
		path = ThermalZone
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("thermal zone: %w: %w", ErrUnavailable, err)
	}
	return string(b), nil
}
