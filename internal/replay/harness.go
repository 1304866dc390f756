package replay

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/pclgate/internal/gate"
	"github.com/danielpatrickdp/pclgate/internal/logging"
	"github.com/danielpatrickdp/pclgate/internal/partition"
	"github.com/danielpatrickdp/pclgate/internal/thresholds"
)

// #region types
// Entry is one recorded correction, already in reporting units.
type Entry struct {
	Label     uint64
	Partition partition.Partition
	Coord     partition.Coord
	Move      float64
	Err       float64
	Verdict   gate.Verdict // verdict when it was recorded; empty if unknown
}

// ReplayResult pairs the recorded verdict with the replayed outcome.
type ReplayResult struct {
	Previous gate.Verdict
	Outcome  gate.Outcome
	Changed  bool
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total               int             `json:"total"`
	Approvals           int             `json:"approvals"`
	Vetoes              int             `json:"vetoes"`
	Changed             int             `json:"changed"`
	Status              gate.StatusBits `json:"status_bits"`
	Published           bool            `json:"published"`
	PreviouslyPublished bool            `json:"previously_published"`
}

// #endregion types

// #region convert
// EntriesFromProvenance turns stored provenance rows back into replayable
// entries.
func EntriesFromProvenance(rows []logging.ProvenanceEntry) ([]Entry, error) {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		p, ok := partition.Parse(row.Partition)
		if !ok {
			return nil, fmt.Errorf("row %d: unknown partition %q", row.ID, row.Partition)
		}
		c, ok := partition.ParseCoord(row.Coord)
		if !ok {
			return nil, fmt.Errorf("row %d: unknown coordinate %q", row.ID, row.Coord)
		}
		entries = append(entries, Entry{
			Label:     row.Label,
			Partition: p,
			Coord:     c,
			Move:      row.Movement,
			Err:       row.Uncertainty,
			Verdict:   gate.Verdict(row.Verdict),
		})
	}
	return entries, nil
}

// #endregion convert

// #region replay
// Replay re-evaluates recorded corrections against table. Operates entirely
// in-memory; nothing is read from or written to the history.
func Replay(entries []Entry, table thresholds.Table, logger *zap.Logger) []ReplayResult {
	g := gate.NewGate(table, logger)
	results := make([]ReplayResult, 0, len(entries))
	for _, e := range entries {
		out := g.Evaluate(e.Label, e.Partition, e.Coord, e.Move, e.Err)
		results = append(results, ReplayResult{
			Previous: e.Verdict,
			Outcome:  out,
			Changed:  e.Verdict != "" && e.Verdict != out.Verdict,
		})
	}
	return results
}

// Summarize folds replay results into the run decision they would produce.
func Summarize(results []ReplayResult) ReplaySummary {
	var now gate.Tally
	var before gate.Tally
	s := ReplaySummary{Total: len(results)}
	for _, r := range results {
		now.Apply(r.Outcome)
		before.Apply(gate.Outcome{Verdict: r.Previous})
		if r.Changed {
			s.Changed++
		}
	}
	s.Approvals = now.Approvals
	s.Vetoes = now.Vetoes
	s.Status = now.Status
	s.Published = now.StoreAlignments()
	s.PreviouslyPublished = before.StoreAlignments()
	return s
}

// #endregion replay
