package telemetry

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Recorder persists tick statistics for one run to SQLite. Rows are
// buffered and written in batches; History flushes before reading so
// callers always see the latest ticks.
type Recorder struct {
	conn  *sqlx.DB
	runID string

	mu         sync.Mutex
	buf        []TickStats
	flushEvery int
}

// OpenRecorder opens or creates the run database at path and registers a
// new run with a fresh identifier.
func OpenRecorder(path string, seed int64, flushEvery int) (*Recorder, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	r := &Recorder{
		conn:       conn,
		runID:      uuid.New().String(),
		flushEvery: flushEvery,
	}
	if err := r.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	_, err = conn.Exec(
		"INSERT INTO runs (id, seed, started_at) VALUES (?, ?, ?)",
		r.runID, seed, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("register run: %w", err)
	}

	slog.Info("telemetry recorder opened", "path", path, "run", r.runID)
	return r, nil
}

func (r *Recorder) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ticks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		alive INTEGER NOT NULL,
		dead INTEGER NOT NULL,
		mean_energy REAL NOT NULL,
		min_energy REAL NOT NULL,
		mean_temp REAL NOT NULL,
		mean_valence REAL NOT NULL,
		mean_precision REAL NOT NULL,
		food_available REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ticks_run_tick ON ticks(run_id, tick);
	`
	_, err := r.conn.Exec(schema)
	return err
}

// RunID returns the identifier registered for this run.
func (r *Recorder) RunID() string {
	return r.runID
}

// Record buffers one tick row, flushing when the batch is full.
func (r *Recorder) Record(ts TickStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf = append(r.buf, ts)
	if len(r.buf) < r.flushEvery {
		return nil
	}
	return r.flushLocked()
}

// Flush writes any buffered rows immediately.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if len(r.buf) == 0 {
		return nil
	}

	tx, err := r.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO ticks
		(run_id, tick, alive, dead, mean_energy, min_energy,
		 mean_temp, mean_valence, mean_precision, food_available)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ts := range r.buf {
		_, err := stmt.Exec(
			r.runID, ts.Tick, ts.Alive, ts.Dead, ts.MeanEnergy, ts.MinEnergy,
			ts.MeanTemp, ts.MeanValence, ts.MeanPrecision, ts.FoodAvailable,
		)
		if err != nil {
			return fmt.Errorf("insert tick %d: %w", ts.Tick, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	r.buf = r.buf[:0]
	return nil
}

// History returns the most recent rows of this run, newest first.
func (r *Recorder) History(limit int) ([]TickStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flushLocked(); err != nil {
		return nil, fmt.Errorf("flush before read: %w", err)
	}

	var rows []TickStats
	err := r.conn.Select(&rows, `SELECT
		tick, alive, dead, mean_energy, min_energy,
		mean_temp, mean_valence, mean_precision, food_available
		FROM ticks WHERE run_id = ? ORDER BY tick DESC LIMIT ?`,
		r.runID, limit,
	)
	return rows, err
}

// Close flushes pending rows and closes the database.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}
