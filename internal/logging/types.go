package logging

import "time"

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table: one evaluated
// correction of one run.
type ProvenanceEntry struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	Label       uint64    `json:"label"`
	Partition   string    `json:"partition"`
	Coord       string    `json:"coord"`
	Movement    float64   `json:"movement"`
	Uncertainty float64   `json:"uncertainty"`
	Verdict     string    `json:"verdict"` // gate.Verdict
	StatusBits  uint8     `json:"status_bits"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
// #endregion provenance-entry
