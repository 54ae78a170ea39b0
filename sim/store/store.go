// Package store persists the movements a port resolves to SQLite, one row
// per movement, tagged with the run that produced it.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/portsim/portsim/sim"
)

//go:embed schema.sql
var schemaSQL string

// Clock reports the current simulated minute. *sim.Port satisfies it.
type Clock interface {
	Clock() int64
}

// Entry is one logged movement.
type Entry struct {
	Seq       int64
	Minute    int64 // minute the movement was resolved
	Scheduled int64 // minute the movement was originally due
	Kind      string
	Direction string
	Encoded   string
}

// MovementLog is a statistics evaluator that appends every movement it is
// shown to a SQLite database. Several runs may share one database file; rows
// are keyed by run ID.
type MovementLog struct {
	db    *sql.DB
	runID uuid.UUID
	clock Clock
	seq   int64
}

// Open creates or opens the database at path and returns a log writing
// under runID. Applies pragmas and the schema; safe to call on an existing file.
func Open(path string, runID uuid.UUID, clock Clock) (*MovementLog, error) {
	if clock == nil {
		return nil, fmt.Errorf("movement log requires a clock: %w", sim.ErrInvalidArgument)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	// resume numbering when appending to an existing run
	var next int64
	if err := db.QueryRow("SELECT COALESCE(MAX(seq) + 1, 0) FROM movements WHERE run_id = ?", runID.String()).Scan(&next); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read last sequence: %w", err)
	}

	logrus.Infof("Movement log %s opened for run %s", path, runID)
	return &MovementLog{db: db, runID: runID, clock: clock, seq: next}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (l *MovementLog) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// RunID returns the run this log writes under.
func (l *MovementLog) RunID() uuid.UUID {
	return l.runID
}

func (l *MovementLog) Name() string {
	return "movement-log"
}

// OnProcessMovement appends m to the log.
func (l *MovementLog) OnProcessMovement(m sim.Movement) error {
	_, err := l.db.ExecContext(context.Background(), `
		INSERT INTO movements (run_id, seq, minute, scheduled, kind, direction, encoded)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		l.runID.String(),
		l.seq,
		l.clock.Clock(),
		m.Time(),
		m.Kind(),
		m.Direction().String(),
		m.Encode(),
	)
	if err != nil {
		return fmt.Errorf("write movement: %w", err)
	}
	l.seq++
	return nil
}

// Count returns the number of movements logged under runID.
func (l *MovementLog) Count(ctx context.Context, runID uuid.UUID) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM movements WHERE run_id = ?", runID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}

// Entries returns the movements logged under runID in processing order.
func (l *MovementLog) Entries(ctx context.Context, runID uuid.UUID) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, minute, scheduled, kind, direction, encoded
		FROM movements
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.Minute, &e.Scheduled, &e.Kind, &e.Direction, &e.Encoded); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	return entries, nil
}

// Runs returns the distinct run IDs in the database, in ascending order.
// Version 7 run IDs sort by creation time.
func (l *MovementLog) Runs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT DISTINCT run_id FROM movements ORDER BY run_id ASC")
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []uuid.UUID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("run id %q: %w", s, err)
		}
		runs = append(runs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
