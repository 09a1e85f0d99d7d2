package telemetry

import (
	"time"

	"github.com/sweeney/helium/internal/nmea"
)

// SensorSnapshot is one row of instrument readings. Fields that have never
// been read are nil.
type SensorSnapshot struct {
	FlightID string    `json:"flight_id"`
	Time     time.Time `json:"time"`
	Mode     string    `json:"mode"`

	ExteriorTemp     *float64 `json:"oat"`
	InteriorTemp     *float64 `json:"iat"`
	CPUTemp          *float64 `json:"cput"`
	SensorTemp       *float64 `json:"bmpt"`
	Humidity         *float64 `json:"rh"`
	Altitude         float64  `json:"alt"`
	Pressure         *float64 `json:"bp"`
	SeaLevelPressure *float64 `json:"slp"`
}

// FixSnapshot is one row of navigation state.
type FixSnapshot struct {
	FlightID string    `json:"flight_id"`
	Time     time.Time `json:"time"` // when the row was taken
	Mode     string    `json:"mode"`

	Latitude      float64    `json:"latitude"`
	Longitude     float64    `json:"longitude"`
	Altitude      *float64   `json:"altitude"`
	SpeedKnots    *float64   `json:"kts"`
	TrueTrack     *float64   `json:"trkangle"`
	MagneticTrack *float64   `json:"trkmag"`
	FixTime       *time.Time `json:"fix_time"`
	Quality       *int       `json:"quality"`
	Satellites    *int       `json:"satcount"`
}

func opt(v Value) *float64 {
	if !v.OK {
		return nil
	}
	x := v.V
	return &x
}

// SensorSnapshot assembles a sensor row. It fails with history.ErrEmpty
// until at least one barometric altitude has been recorded.
func (s *State) SensorSnapshot(now time.Time, flightID, mode string) (SensorSnapshot, error) {
	alt, err := s.BaroAltitude.Latest()
	if err != nil {
		return SensorSnapshot{}, err
	}
	return SensorSnapshot{
		FlightID:         flightID,
		Time:             now.UTC(),
		Mode:             mode,
		ExteriorTemp:     opt(s.ExteriorTemp),
		InteriorTemp:     opt(s.InteriorTemp),
		CPUTemp:          opt(s.CPUTemp),
		SensorTemp:       opt(s.SensorTemp),
		Humidity:         opt(s.Humidity),
		Altitude:         alt,
		Pressure:         opt(s.Pressure),
		SeaLevelPressure: opt(s.SeaLevelPressure),
	}, nil
}

// FixSnapshot assembles a navigation row. ok is false until a position has
// been decoded.
func (s *State) FixSnapshot(now time.Time, flightID, mode string) (FixSnapshot, bool) {
	f := s.Nav.Fix()
	if !f.Has(nmea.HasPosition) {
		return FixSnapshot{}, false
	}
	snap := FixSnapshot{
		FlightID:  flightID,
		Time:      now.UTC(),
		Mode:      mode,
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
	}
	if f.Has(nmea.HasAltitude) {
		v := f.Altitude
		snap.Altitude = &v
	}
	if f.Has(nmea.HasSpeedKnots) {
		v := f.SpeedKnots
		snap.SpeedKnots = &v
	}
	if f.Has(nmea.HasTrueTrack) {
		v := f.TrueTrack
		snap.TrueTrack = &v
	}
	if f.Has(nmea.HasMagneticTrack) {
		v := f.MagneticTrack
		snap.MagneticTrack = &v
	}
	if f.Has(nmea.HasTime) {
		v := f.Time
		snap.FixTime = &v
	}
	if f.Has(nmea.HasQuality) {
		v := f.Quality
		snap.Quality = &v
	}
	if f.Has(nmea.HasSatellites) {
		v := f.Satellites
		snap.Satellites = &v
	}
	return snap, true
}
