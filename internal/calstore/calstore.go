// Package calstore persists calibration profiles so a power cycle does
// not discard a bench calibration. Every save appends a timestamped row;
// Load returns the most recent one.
package calstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/et-diagnostics/vibrascope/internal/engine"
)

// ErrNoProfile reports that no calibration has ever been saved.
var ErrNoProfile = errors.New("calstore: no saved calibration")

type Store struct {
	*sql.DB
}

// Open creates or opens the calibration database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS calibrations (
			cal_id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile TEXT NOT NULL,
			saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db}, nil
}

// Save appends the profile as a new row. Earlier rows are kept as
// history and never overwritten.
func (s *Store) Save(p engine.CalibrationProfile) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("calstore: encode profile: %w", err)
	}
	_, err = s.Exec("INSERT INTO calibrations (profile) VALUES (?)", string(blob))
	if err != nil {
		return fmt.Errorf("calstore: save profile: %w", err)
	}
	return nil
}

// Load returns the most recently saved profile, or ErrNoProfile.
func (s *Store) Load() (engine.CalibrationProfile, error) {
	var blob string
	err := s.QueryRow("SELECT profile FROM calibrations ORDER BY cal_id DESC LIMIT 1").Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.CalibrationProfile{}, ErrNoProfile
	}
	if err != nil {
		return engine.CalibrationProfile{}, fmt.Errorf("calstore: load profile: %w", err)
	}

	var p engine.CalibrationProfile
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return engine.CalibrationProfile{}, fmt.Errorf("calstore: decode profile: %w", err)
	}
	return p, nil
}

// HistoryEntry is one saved calibration with its timestamp.
type HistoryEntry struct {
	Profile engine.CalibrationProfile
	SavedAt time.Time
}

// History returns saved calibrations, newest first, up to limit rows.
func (s *Store) History(limit int) ([]HistoryEntry, error) {
	rows, err := s.Query("SELECT profile, saved_at FROM calibrations ORDER BY cal_id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var blob string
		var at time.Time
		if err := rows.Scan(&blob, &at); err != nil {
			return nil, err
		}
		var p engine.CalibrationProfile
		if err := json.Unmarshal([]byte(blob), &p); err != nil {
			return nil, fmt.Errorf("calstore: decode history row: %w", err)
		}
		entries = append(entries, HistoryEntry{Profile: p, SavedAt: at})
	}
	return entries, rows.Err()
}
