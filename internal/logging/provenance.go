package logging

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/danielpatrickdp/pclgate/internal/gate"
)

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// #region log-decision
// LogDecision writes a provenance entry to the provenance_log table.
func LogDecision(db Execer, entry ProvenanceEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO provenance_log (run_id, label, partition, coord, movement, uncertainty, verdict, status_bits, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		int64(entry.Label),
		entry.Partition,
		entry.Coord,
		nullIfNaN(entry.Movement),
		nullIfNaN(entry.Uncertainty),
		entry.Verdict,
		int(entry.StatusBits),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}
// #endregion log-decision

// #region from-outcome
// EntryFromOutcome converts a gate outcome into a provenance row.
func EntryFromOutcome(runID string, o gate.Outcome, at time.Time) ProvenanceEntry {
	return ProvenanceEntry{
		RunID:       runID,
		Label:       o.Label,
		Partition:   o.Partition.Name(),
		Coord:       o.Coord.String(),
		Movement:    o.Move,
		Uncertainty: o.Err,
		Verdict:     string(o.Verdict),
		StatusBits:  uint8(o.Bits),
		Reason:      o.Reason,
		CreatedAt:   at,
	}
}
// #endregion from-outcome

// #region list-decisions
// ListDecisions returns every provenance row of a run in insertion order.
func ListDecisions(db *sql.DB, runID string) ([]ProvenanceEntry, error) {
	rows, err := db.Query(
		`SELECT id, run_id, label, partition, coord, movement, uncertainty, verdict, status_bits, reason, created_at
		 FROM provenance_log WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var entries []ProvenanceEntry
	for rows.Next() {
		var e ProvenanceEntry
		var label int64
		var bits int
		var move, uncert sql.NullFloat64
		var reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.ID, &e.RunID, &label, &e.Partition, &e.Coord, &move,
			&uncert, &e.Verdict, &bits, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.Label = uint64(label)
		e.StatusBits = uint8(bits)
		e.Movement = floatOrNaN(move)
		e.Uncertainty = floatOrNaN(uncert)
		if reason.Valid {
			e.Reason = reason.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
// #endregion list-decisions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// SQLite has no NaN; it is stored as NULL and read back as NaN.
func nullIfNaN(f float64) interface{} {
	if math.IsNaN(f) {
		return nil
	}
	return f
}

func floatOrNaN(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}
// #endregion helpers
