package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/pclgate/internal/gate"
	"github.com/danielpatrickdp/pclgate/internal/logging"
)

// ErrRunNotFound is returned when a run id is not in the history.
var ErrRunNotFound = errors.New("run not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id            TEXT PRIMARY KEY,
	end_file          TEXT NOT NULL,
	log_file          TEXT NOT NULL,
	result_file       TEXT NOT NULL,
	published         INTEGER NOT NULL,
	update_db         INTEGER NOT NULL,
	vetoed            INTEGER NOT NULL,
	status_bits       INTEGER NOT NULL,
	n_records         INTEGER NOT NULL,
	binaries          INTEGER NOT NULL,
	exit_code         INTEGER NOT NULL,
	exit_message      TEXT NOT NULL,
	records_below_min INTEGER NOT NULL,
	approvals         INTEGER NOT NULL,
	vetoes            INTEGER NOT NULL,
	thresholds_json   TEXT NOT NULL,
	created_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	label         INTEGER NOT NULL,
	partition     TEXT NOT NULL,
	coord         TEXT NOT NULL,
	movement      REAL,
	uncertainty   REAL,
	verdict       TEXT NOT NULL,
	status_bits   INTEGER NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS published_state (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	run_id        TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`
// #endregion schema

const runColumns = `run_id, end_file, log_file, result_file, published, update_db, vetoed, status_bits,
	n_records, binaries, exit_code, exit_message, records_below_min, approvals, vetoes, thresholds_json, created_at`

// #region store-struct
// Store keeps the run history in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region save-run
// SaveRun inserts a run with the outcome of every evaluated record. A
// published run also becomes the current published state.
func (s *Store) SaveRun(rec RunRecord, outcomes []gate.Outcome) error {
	thJSON, err := json.Marshal(rec.Thresholds)
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	r := rec.Results
	_, err = tx.Exec(
		`INSERT INTO runs (`+runColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Files.End, rec.Files.Log, rec.Files.Result,
		r.Published, r.UpdateDB, r.Vetoed, int(r.Status),
		r.NRecords, r.Binaries, r.ExitCode, r.ExitMessage, r.RecordsBelowMinimum,
		r.Approvals, r.Vetoes, string(thJSON), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, o := range outcomes {
		if err := logging.LogDecision(tx, logging.EntryFromOutcome(rec.RunID, o, rec.CreatedAt)); err != nil {
			return err
		}
	}

	if r.Published {
		_, err = tx.Exec(
			`INSERT INTO published_state (id, run_id) VALUES (1, ?)
			 ON CONFLICT(id) DO UPDATE SET run_id = excluded.run_id`,
			rec.RunID,
		)
		if err != nil {
			return fmt.Errorf("set published: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
// #endregion save-run

// #region get-run
// GetRun retrieves a run by id.
func (s *Store) GetRun(id string) (RunRecord, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}
// #endregion get-run

// #region get-published
// GetPublished reads the most recently published run.
func (s *Store) GetPublished() (RunRecord, error) {
	var runID string
	err := s.db.QueryRow(`SELECT run_id FROM published_state WHERE id = 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("get published: %w", ErrRunNotFound)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get published: %w", err)
	}
	return s.GetRun(runID)
}
// #endregion get-published

// #region list-runs
// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-runs

// #region records
// Records returns the evaluated corrections of a run in file order.
func (s *Store) Records(runID string) ([]logging.ProvenanceEntry, error) {
	return logging.ListDecisions(s.db, runID)
}
// #endregion records

// #region scan
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var status int
	var thJSON, createdStr string
	r := &rec.Results
	err := row.Scan(
		&rec.RunID, &rec.Files.End, &rec.Files.Log, &rec.Files.Result,
		&r.Published, &r.UpdateDB, &r.Vetoed, &status,
		&r.NRecords, &r.Binaries, &r.ExitCode, &r.ExitMessage, &r.RecordsBelowMinimum,
		&r.Approvals, &r.Vetoes, &thJSON, &createdStr,
	)
	if err != nil {
		return RunRecord{}, err
	}
	r.Status = gate.StatusBits(status)
	if err := json.Unmarshal([]byte(thJSON), &rec.Thresholds); err != nil {
		return RunRecord{}, fmt.Errorf("unmarshal thresholds: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}
// #endregion scan
