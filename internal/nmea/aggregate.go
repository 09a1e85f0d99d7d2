package nmea

// Aggregate merges fixes from successive sentences. A field is only
// overwritten by a sentence that supplies it, so position from GGA and
// speed from VTG coexist.
type Aggregate struct {
	cur Fix
}

// Apply merges the fields present in f.
func (a *Aggregate) Apply(f Fix) {
	if f.Fields == 0 {
		return
	}
	if f.Has(HasTime) {
		a.cur.Time = f.Time
	}
	if f.Has(HasPosition) {
		a.cur.Latitude = f.Latitude
		a.cur.Longitude = f.Longitude
	}
	if f.Has(HasAltitude) {
		a.cur.Altitude = f.Altitude
	}
	if f.Has(HasSpeedKnots) {
		a.cur.SpeedKnots = f.SpeedKnots
	}
	if f.Has(HasSpeedKmh) {
		a.cur.SpeedKmh = f.SpeedKmh
	}
	if f.Has(HasTrueTrack) {
		a.cur.TrueTrack = f.TrueTrack
	}
	if f.Has(HasMagneticTrack) {
		a.cur.MagneticTrack = f.MagneticTrack
	}
	if f.Has(HasQuality) {
		a.cur.Quality = f.Quality
	}
	if f.Has(HasSatellites) {
		a.cur.Satellites = f.Satellites
	}
	if f.Has(HasFixType) {
		a.cur.FixType = f.FixType
	}
	a.cur.Fields |= f.Fields
	a.cur.Type = f.Type
}

// Fix returns the merged view. Type is the last applied sentence type.
func (a *Aggregate) Fix() Fix {
	return a.cur
}
