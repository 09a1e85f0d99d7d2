// Package store persists telemetry snapshots to a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/sweeney/helium/internal/telemetry"
)

// DefaultTimeout bounds every statement so a wedged disk cannot stall the
// control loop.
const DefaultTimeout = 2 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS sensors (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	flight_id TEXT NOT NULL,
	time      TEXT NOT NULL,
	mode      TEXT NOT NULL,
	oat       REAL,
	iat       REAL,
	cput      REAL,
	bmpt      REAL,
	rh        REAL,
	alt       REAL NOT NULL,
	bp        REAL,
	slp       REAL
);
CREATE TABLE IF NOT EXISTS fixes (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	flight_id TEXT NOT NULL,
	time      TEXT NOT NULL,
	mode      TEXT NOT NULL,
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL,
	altitude  REAL,
	kts       REAL,
	trkangle  REAL,
	trkmag    REAL,
	fix_time  TEXT,
	quality   INTEGER,
	satcount  INTEGER
);`

// SQLite is a telemetry.Sink backed by a database file.
type SQLite struct {
	db      *sql.DB
	timeout time.Duration
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db, timeout: DefaultTimeout}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// PersistSensorSnapshot inserts one row into sensors.
func (s *SQLite) PersistSensorSnapshot(snap telemetry.SensorSnapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sensors (flight_id, time, mode, oat, iat, cput, bmpt, rh, alt, bp, slp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.FlightID, formatTime(snap.Time), snap.Mode,
		snap.ExteriorTemp, snap.InteriorTemp, snap.CPUTemp, snap.SensorTemp,
		snap.Humidity, snap.Altitude, snap.Pressure, snap.SeaLevelPressure,
	)
	if err != nil {
		return fmt.Errorf("%w: insert sensors: %w", telemetry.ErrPersist, err)
	}
	return nil
}

// PersistFixSnapshot inserts one row into fixes.
func (s *SQLite) PersistFixSnapshot(f telemetry.FixSnapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var fixTime *string
	if f.FixTime != nil {
		v := formatTime(*f.FixTime)
		fixTime = &v
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fixes (flight_id, time, mode, latitude, longitude, altitude, kts, trkangle, trkmag, fix_time, quality, satcount)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FlightID, formatTime(f.Time), f.Mode,
		f.Latitude, f.Longitude, f.Altitude, f.SpeedKnots,
		f.TrueTrack, f.MagneticTrack, fixTime, f.Quality, f.Satellites,
	)
	if err != nil {
		return fmt.Errorf("%w: insert fixes: %w", telemetry.ErrPersist, err)
	}
	return nil
}

// Version returns the SQLite library version.
func (s *SQLite) Version(ctx context.Context) (string, error) {
	var v string
	if err := s.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&v); err != nil {
		return "", fmt.Errorf("sqlite version: %w", err)
	}
	return v, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
