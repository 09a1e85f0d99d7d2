package nmea

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Field flags which values a Fix carries.
type Field uint16

const (
	HasTime Field = 1 << iota
	HasPosition
	HasAltitude
	HasSpeedKnots
	HasSpeedKmh
	HasTrueTrack
	HasMagneticTrack
	HasQuality
	HasSatellites
	HasFixType
)

// Fix is the typed content of one sentence. Only the fields flagged in
// Fields are meaningful; the rest are zero.
type Fix struct {
	Type   string
	Fields Field

	Time          time.Time // UTC
	Latitude      float64   // decimal degrees, negative = south
	Longitude     float64   // decimal degrees, negative = west
	Altitude      float64   // meters MSL
	SpeedKnots    float64
	SpeedKmh      float64
	TrueTrack     float64 // degrees
	MagneticTrack float64 // degrees
	Quality       int
	Satellites    int
	FixType       int
}

// Has reports whether every flag in f is set.
func (x Fix) Has(f Field) bool {
	return x.Fields&f == f
}

// Parse decodes one raw line. Lines that are not sentences, and sentence
// types outside the supported set, return a Fix with no fields and a nil error.
func Parse(line string) (Fix, error) {
	env, err := Split(line)
	if err != nil {
		return Fix{}, err
	}
	if env.Type == "" {
		return Fix{}, nil
	}

	var fix Fix
	switch env.Type {
	case "RMC":
		fix, err = parseRMC(env.Fields)
	case "GGA":
		fix, err = parseGGA(env.Fields)
	case "GSA":
		fix, err = parseGSA(env.Fields)
	case "VTG":
		fix, err = parseVTG(env.Fields)
	case "ZDA":
		fix, err = parseZDA(env.Fields)
	default:
		return Fix{Type: env.Type}, nil
	}
	if err != nil {
		return Fix{}, fmt.Errorf("%s: %w", env.Type, err)
	}
	fix.Type = env.Type
	return fix, nil
}

// RMC fields:
//
//	1: time (hhmmss.sss)
//	2: status
//	3,4: latitude, N/S
//	5,6: longitude, E/W
//	7: speed over ground (knots), may be empty
//	8: track angle (deg), empty when stationary
//	9: date (ddmmyy)
func parseRMC(f []string) (Fix, error) {
	if err := need(f, 10); err != nil {
		return Fix{}, err
	}
	ts, err := parseDateTime(f[1], f[9])
	if err != nil {
		return Fix{}, err
	}
	lat, lon, err := parsePosition(f[3], f[4], f[5], f[6])
	if err != nil {
		return Fix{}, err
	}
	fix := Fix{
		Fields:    HasTime | HasPosition,
		Time:      ts,
		Latitude:  lat,
		Longitude: lon,
	}
	if err := fix.setOptional(&fix.SpeedKnots, HasSpeedKnots, "speed", f[7]); err != nil {
		return Fix{}, err
	}
	if err := fix.setOptional(&fix.TrueTrack, HasTrueTrack, "track", f[8]); err != nil {
		return Fix{}, err
	}
	return fix, nil
}

// GGA fields:
//
//	1: time
//	2,3: latitude, N/S
//	4,5: longitude, E/W
//	6: fix quality
//	7: satellites in use
//	8: HDOP
//	9: altitude (meters)
func parseGGA(f []string) (Fix, error) {
	if err := need(f, 10); err != nil {
		return Fix{}, err
	}
	lat, lon, err := parsePosition(f[2], f[3], f[4], f[5])
	if err != nil {
		return Fix{}, err
	}
	quality, err := parseInt("quality", f[6])
	if err != nil {
		return Fix{}, err
	}
	sats, err := parseInt("satellites", f[7])
	if err != nil {
		return Fix{}, err
	}
	alt, err := parseNumber("altitude", f[9])
	if err != nil {
		return Fix{}, err
	}
	return Fix{
		Fields:     HasPosition | HasQuality | HasSatellites | HasAltitude,
		Latitude:   lat,
		Longitude:  lon,
		Quality:    quality,
		Satellites: sats,
		Altitude:   alt,
	}, nil
}

// GSA is only read for the fix type (field 2).
func parseGSA(f []string) (Fix, error) {
	if err := need(f, 3); err != nil {
		return Fix{}, err
	}
	ft, err := parseInt("fix type", f[2])
	if err != nil {
		return Fix{}, err
	}
	return Fix{Fields: HasFixType, FixType: ft}, nil
}

// VTG fields, any of which may be empty:
//
//	1,2: true track, T
//	3,4: magnetic track, M
//	5,6: ground speed, N (knots)
//	7,8: ground speed, K (km/h)
func parseVTG(f []string) (Fix, error) {
	if err := need(f, 8); err != nil {
		return Fix{}, err
	}
	var fix Fix
	if err := fix.setOptional(&fix.TrueTrack, HasTrueTrack, "true track", f[1]); err != nil {
		return Fix{}, err
	}
	if err := fix.setOptional(&fix.MagneticTrack, HasMagneticTrack, "magnetic track", f[3]); err != nil {
		return Fix{}, err
	}
	if err := fix.setOptional(&fix.SpeedKnots, HasSpeedKnots, "knots", f[5]); err != nil {
		return Fix{}, err
	}
	if err := fix.setOptional(&fix.SpeedKmh, HasSpeedKmh, "km/h", f[7]); err != nil {
		return Fix{}, err
	}
	return fix, nil
}

// ZDA fields:
//
//	1: time (hhmmss.sss)
//	2: day
//	3: month
//	4: year (four digits, or two on some receivers)
func parseZDA(f []string) (Fix, error) {
	if err := need(f, 5); err != nil {
		return Fix{}, err
	}
	day, err := parseInt("day", f[2])
	if err != nil {
		return Fix{}, err
	}
	month, err := parseInt("month", f[3])
	if err != nil {
		return Fix{}, err
	}
	rawYear := strings.TrimSpace(f[4])
	year, err := parseInt("year", rawYear)
	if err != nil {
		return Fix{}, err
	}
	if len(rawYear) <= 2 {
		year = ExpandYear(year)
	}
	ts, err := buildTime(f[1], year, month, day)
	if err != nil {
		return Fix{}, err
	}
	return Fix{Fields: HasTime, Time: ts}, nil
}

// ParseCoordinate decodes a ddmm.mmmm (latitude) or dddmm.mmmm (longitude)
// field: the digit count before the decimal point selects two or three
// degree digits. 'S' and 'W' negate the result. The hemisphere also picks
// the range: 90 degrees for N/S, 180 for E/W.
func ParseCoordinate(raw, hemisphere string) (float64, error) {
	raw = strings.TrimSpace(raw)
	intLen := strings.IndexByte(raw, '.')
	if intLen == -1 {
		intLen = len(raw)
	}

	var degDigits int
	switch intLen {
	case 4:
		degDigits = 2
	case 5:
		degDigits = 3
	default:
		return 0, fmt.Errorf("%w: coordinate %q", ErrParse, raw)
	}

	deg, err := strconv.Atoi(raw[:degDigits])
	if err != nil || deg < 0 {
		return 0, fmt.Errorf("%w: coordinate %q", ErrParse, raw)
	}
	mins, err := strconv.ParseFloat(raw[degDigits:], 64)
	if err != nil || mins < 0 || mins >= 60 {
		return 0, fmt.Errorf("%w: coordinate minutes %q", ErrParse, raw)
	}

	v := float64(deg) + mins/60.0
	var limit float64
	switch strings.ToUpper(strings.TrimSpace(hemisphere)) {
	case "N":
		limit = 90
	case "S":
		limit, v = 90, -v
	case "E":
		limit = 180
	case "W":
		limit, v = 180, -v
	default:
		return 0, fmt.Errorf("%w: hemisphere %q", ErrParse, hemisphere)
	}
	if math.Abs(v) > limit {
		return 0, fmt.Errorf("%w: coordinate %q %s out of range", ErrParse, raw, hemisphere)
	}
	return v, nil
}

// ExpandYear maps a two-digit year onto a full year. Values above 82 belong
// to the 1900s, the rest to the 2000s.
func ExpandYear(yy int) int {
	if yy > 82 {
		return 1900 + yy
	}
	return 2000 + yy
}

func parsePosition(lat, latHemi, lon, lonHemi string) (float64, float64, error) {
	if !onAxis(latHemi, "N", "S") {
		return 0, 0, fmt.Errorf("%w: latitude hemisphere %q", ErrParse, latHemi)
	}
	if !onAxis(lonHemi, "E", "W") {
		return 0, 0, fmt.Errorf("%w: longitude hemisphere %q", ErrParse, lonHemi)
	}
	la, err := ParseCoordinate(lat, latHemi)
	if err != nil {
		return 0, 0, err
	}
	lo, err := ParseCoordinate(lon, lonHemi)
	if err != nil {
		return 0, 0, err
	}
	return la, lo, nil
}

func onAxis(hemisphere, a, b string) bool {
	h := strings.ToUpper(strings.TrimSpace(hemisphere))
	return h == a || h == b
}

// parseDateTime combines an hhmmss(.sss) time with a ddmmyy date.
func parseDateTime(rawTime, rawDate string) (time.Time, error) {
	rawDate = strings.TrimSpace(rawDate)
	if len(rawDate) != 6 {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrParse, rawDate)
	}
	day, err1 := strconv.Atoi(rawDate[0:2])
	month, err2 := strconv.Atoi(rawDate[2:4])
	yy, err3 := strconv.Atoi(rawDate[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrParse, rawDate)
	}
	return buildTime(rawTime, ExpandYear(yy), month, day)
}

func buildTime(rawTime string, year, month, day int) (time.Time, error) {
	rawTime = strings.TrimSpace(rawTime)
	if len(rawTime) < 6 {
		return time.Time{}, fmt.Errorf("%w: time %q", ErrParse, rawTime)
	}
	hh, err1 := strconv.Atoi(rawTime[0:2])
	mm, err2 := strconv.Atoi(rawTime[2:4])
	ss, err3 := strconv.ParseFloat(rawTime[4:], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("%w: time %q", ErrParse, rawTime)
	}
	if hh > 23 || mm > 59 || ss < 0 || ss >= 61 {
		return time.Time{}, fmt.Errorf("%w: time %q out of range", ErrParse, rawTime)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: date %04d-%02d-%02d out of range", ErrParse, year, month, day)
	}
	whole := int(ss)
	nanos := int((ss - float64(whole)) * float64(time.Second))
	return time.Date(year, time.Month(month), day, hh, mm, whole, nanos, time.UTC), nil
}

func parseNumber(name, s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrParse, name, s)
	}
	return v, nil
}

// setOptional parses a field receivers may leave empty. An empty field
// leaves flag clear; anything else must be a number.
func (x *Fix) setOptional(dst *float64, flag Field, name, s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v, err := parseNumber(name, s)
	if err != nil {
		return err
	}
	*dst = v
	x.Fields |= flag
	return nil
}

func parseInt(name, s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrParse, name, s)
	}
	return v, nil
}

func need(f []string, n int) error {
	if len(f) < n {
		return fmt.Errorf("%w: %d fields, want at least %d", ErrParse, len(f), n)
	}
	return nil
}
