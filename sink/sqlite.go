package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mtraver/sensehat/measurement"
)

// SQLiteConfig configures a SQLite sink.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

const createReadings = `CREATE TABLE IF NOT EXISTS readings (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	temp      REAL NOT NULL,
	rh        REAL NOT NULL,
	pressure  REAL NOT NULL,
	raw_temp  REAL NOT NULL,
	cpu_temp  REAL NOT NULL
)`

// SQLite stores readings in the readings table of a local database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sink: sqlite path must be given")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sink: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+cfg.Path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sink: db open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createReadings); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sink: create readings table: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Publish(ctx context.Context, r measurement.Reading) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (device_id, timestamp, temp, rh, pressure, raw_temp, cpu_temp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.DeviceID, r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.Temp, r.Humidity, r.Pressure, r.RawTemp, r.CPUTemp)
	return err
}

// Latest returns the most recently stored reading for deviceID.
func (s *SQLite) Latest(ctx context.Context, deviceID string) (measurement.Reading, error) {
	r := measurement.Reading{DeviceID: deviceID}
	var ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT timestamp, temp, rh, pressure, raw_temp, cpu_temp FROM readings
		WHERE device_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1`, deviceID).
		Scan(&ts, &r.Temp, &r.Humidity, &r.Pressure, &r.RawTemp, &r.CPUTemp)
	if err != nil {
		return measurement.Reading{}, err
	}

	if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return measurement.Reading{}, err
	}
	return r, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
