// Package nmea decodes the GPS receiver's sentence feed into typed fixes.
//
// It covers the subset the flight computer consumes:
//   - RMC for date/time, position, speed and track
//   - GGA for position, fix quality, satellite count and altitude
//   - GSA for the fix type
//   - VTG for true/magnetic track and ground speed
//   - ZDA for UTC date and time
//
// A malformed field fails the whole sentence with ErrParse. Lines that do not
// look like sentences at all are ignored without error.
package nmea
