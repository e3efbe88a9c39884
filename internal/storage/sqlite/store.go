package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jfsehuanes/thunderfish/internal/tracker"
)

// Pipeline stages the store distinguishes. The first-level sort is saved
// before the destructive stages run; the final stage is the merged result.
const (
	StageFirstLevel = "first_level"
	StageFinal      = "final"
)

// ErrNotFound is returned when a requested artifact has not been saved.
var ErrNotFound = errors.New("artifact not found")

// Store persists tracking artifacts in a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. Use ":memory:" for an in-process test database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// schema mirrors migrations/000001_init.up.sql so tests and fresh
// databases work without running the migration tooling.
const schema = `
	CREATE TABLE IF NOT EXISTS time_axes (
		recording  TEXT NOT NULL,
		idx        INTEGER NOT NULL,
		seconds    DOUBLE NOT NULL,
		PRIMARY KEY (recording, idx)
	);
	CREATE TABLE IF NOT EXISTS trajectory_samples (
		recording      TEXT NOT NULL,
		stage          TEXT NOT NULL,
		trajectory_id  INTEGER NOT NULL,
		idx            INTEGER NOT NULL,
		freq           DOUBLE NOT NULL,
		PRIMARY KEY (recording, stage, trajectory_id, idx)
	);
	CREATE TABLE IF NOT EXISTS rises (
		recording      TEXT NOT NULL,
		stage          TEXT NOT NULL,
		trajectory_id  INTEGER NOT NULL,
		start_idx      INTEGER NOT NULL,
		end_idx        INTEGER NOT NULL,
		start_freq     DOUBLE NOT NULL,
		end_freq       DOUBLE NOT NULL
	);
	CREATE TABLE IF NOT EXISTS runs (
		run_id        TEXT PRIMARY KEY,
		recording     TEXT NOT NULL,
		stage         TEXT NOT NULL,
		trajectories  INTEGER NOT NULL,
		rises         INTEGER NOT NULL,
		finished_at   TIMESTAMP NOT NULL
	);
`

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for migrations and ad-hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

// SaveTimeAxis stores the recording's time axis, replacing any previous
// one.
func (s *Store) SaveTimeAxis(recording string, axis tracker.TimeAxis) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save time axis: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM time_axes WHERE recording = ?`, recording); err != nil {
		return fmt.Errorf("clear time axis: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO time_axes (recording, idx, seconds) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save time axis: %w", err)
	}
	defer stmt.Close()
	for i, t := range axis {
		if _, err := stmt.Exec(recording, i, t); err != nil {
			return fmt.Errorf("insert time axis row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// LoadTimeAxis loads the recording's time axis. Returns ErrNotFound when
// the recording has no saved axis.
func (s *Store) LoadTimeAxis(recording string) (tracker.TimeAxis, error) {
	rows, err := s.db.Query(
		`SELECT seconds FROM time_axes WHERE recording = ? ORDER BY idx`, recording)
	if err != nil {
		return nil, fmt.Errorf("load time axis: %w", err)
	}
	defer rows.Close()

	var axis tracker.TimeAxis
	for rows.Next() {
		var t float64
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan time axis row: %w", err)
		}
		axis = append(axis, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load time axis: %w", err)
	}
	if len(axis) == 0 {
		return nil, fmt.Errorf("time axis for %q: %w", recording, ErrNotFound)
	}
	return axis, nil
}

// SaveTrajectories stores the valid samples of every live trajectory
// under the given stage, replacing any previous save of that stage.
func (s *Store) SaveTrajectories(recording, stage string, arena *tracker.Arena) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save trajectories: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM trajectory_samples WHERE recording = ? AND stage = ?`,
		recording, stage); err != nil {
		return fmt.Errorf("clear trajectories: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO trajectory_samples (recording, stage, trajectory_id, idx, freq)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save trajectories: %w", err)
	}
	defer stmt.Close()

	for _, tr := range arena.Live() {
		for i, sm := range tr.Samples {
			if !sm.Valid {
				continue
			}
			if _, err := stmt.Exec(recording, stage, tr.ID, i, sm.Freq); err != nil {
				return fmt.Errorf("insert sample (trajectory %d, idx %d): %w", tr.ID, i, err)
			}
		}
	}
	return tx.Commit()
}

// LoadTrajectories rebuilds the trajectory collection saved under the
// given stage. axisLen must match the recording's time axis length.
// Returns ErrNotFound when the stage was never saved.
func (s *Store) LoadTrajectories(recording, stage string, axisLen int) (*tracker.Arena, error) {
	rows, err := s.db.Query(`
		SELECT trajectory_id, idx, freq FROM trajectory_samples
		WHERE recording = ? AND stage = ?
		ORDER BY trajectory_id, idx`, recording, stage)
	if err != nil {
		return nil, fmt.Errorf("load trajectories: %w", err)
	}
	defer rows.Close()

	arena := tracker.NewArena(axisLen)
	for rows.Next() {
		var id, idx int
		var freq float64
		if err := rows.Scan(&id, &idx, &freq); err != nil {
			return nil, fmt.Errorf("scan trajectory row: %w", err)
		}
		if idx < 0 || idx >= axisLen {
			return nil, fmt.Errorf("trajectory %d: sample index %d outside axis of length %d", id, idx, axisLen)
		}
		arena.Restore(id).Set(idx, freq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load trajectories: %w", err)
	}
	if arena.Len() == 0 {
		return nil, fmt.Errorf("trajectories for %q stage %q: %w", recording, stage, ErrNotFound)
	}
	return arena, nil
}

// SaveRises stores the rise records of every live trajectory under the
// given stage, replacing any previous save of that stage.
func (s *Store) SaveRises(recording, stage string, arena *tracker.Arena) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save rises: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM rises WHERE recording = ? AND stage = ?`, recording, stage); err != nil {
		return fmt.Errorf("clear rises: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO rises (recording, stage, trajectory_id, start_idx, end_idx, start_freq, end_freq)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save rises: %w", err)
	}
	defer stmt.Close()

	for _, tr := range arena.Live() {
		for _, r := range tr.Rises {
			if _, err := stmt.Exec(recording, stage, tr.ID, r.Start, r.End, r.StartFreq, r.EndFreq); err != nil {
				return fmt.Errorf("insert rise (trajectory %d): %w", tr.ID, err)
			}
		}
	}
	return tx.Commit()
}

// LoadRises attaches the saved rise records of the given stage to the
// matching trajectories in arena. Rises referencing a trajectory absent
// from the arena are skipped. An unsaved stage yields no rises; that is
// not an error, trajectories without excursions are normal.
func (s *Store) LoadRises(recording, stage string, arena *tracker.Arena) error {
	rows, err := s.db.Query(`
		SELECT trajectory_id, start_idx, end_idx, start_freq, end_freq FROM rises
		WHERE recording = ? AND stage = ?
		ORDER BY trajectory_id, start_idx`, recording, stage)
	if err != nil {
		return fmt.Errorf("load rises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var r tracker.Rise
		if err := rows.Scan(&id, &r.Start, &r.End, &r.StartFreq, &r.EndFreq); err != nil {
			return fmt.Errorf("scan rise row: %w", err)
		}
		if tr := arena.Get(id); tr != nil {
			tr.Rises = append(tr.Rises, r)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load rises: %w", err)
	}
	return nil
}

// RecordRun notes a completed pipeline stage and returns its generated
// run id.
func (s *Store) RecordRun(recording, stage string, trajectories, rises int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, recording, stage, trajectories, rises, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, recording, stage, trajectories, rises, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}
