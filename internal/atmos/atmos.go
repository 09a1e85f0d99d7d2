// Package atmos holds the standard-atmosphere calculations used by the flight loop.
package atmos

import "math"

// StandardSeaLevel is the ISA sea-level pressure in pascals.
const StandardSeaLevel = 101325.0

const (
	lapseRate    = 0.0065 // K/m
	kelvinOffset = 273.15
	slpExponent  = -5.257
)

// SeaLevelPressure reduces a measured pressure p to sea level given the
// altitude in meters and the air temperature in °C. The result carries the
// units of p.
func SeaLevelPressure(p, altitude, tempC float64) float64 {
	scaledHeight := lapseRate * altitude
	ratio := 1 - scaledHeight/(tempC+scaledHeight+kelvinOffset)
	return p * math.Pow(ratio, slpExponent)
}

// Altitude returns the pressure altitude in meters for p relative to seaLevel.
// Both pressures must share units.
func Altitude(p, seaLevel float64) float64 {
	return 44330.0 * (1 - math.Pow(p/seaLevel, 1/5.255))
}
