package reader

import (
	"github.com/danielpatrickdp/pclgate/internal/gate"
	"github.com/danielpatrickdp/pclgate/internal/partition"
	"github.com/danielpatrickdp/pclgate/internal/thresholds"
)

// #region snapshot
// Snapshot is the read-only result of one Read. Accessors return copies.
type Snapshot struct {
	files      Files
	results    Results
	coarse     CoarseTable
	fine       *FineTable
	thresholds thresholds.Table
	outcomes   []gate.Outcome
}

// StoreAlignments reports whether a new alignment payload should be
// published: something significant was found and nothing vetoed.
func (s *Snapshot) StoreAlignments() bool {
	return s.results.UpdateDB && !s.results.Vetoed
}

func (s *Snapshot) Results() Results { return s.results }
func (s *Snapshot) Files() Files { return s.files }

// Thresholds returns the table the run was evaluated against.
func (s *Snapshot) Thresholds() thresholds.Table { return s.thresholds.Clone() }

// Outcomes lists the gate outcome of every evaluated record in file order.
func (s *Snapshot) Outcomes() []gate.Outcome {
	out := make([]gate.Outcome, len(s.outcomes))
	copy(out, s.outcomes)
	return out
}

// #endregion snapshot

// #region coarse
// Coarse returns the observation for a coarse partition and DOF.
func (s *Snapshot) Coarse(p partition.Partition, c partition.Coord) (Observation, bool) {
	if !p.IsCoarse() || !c.Valid() {
		return Observation{}, false
	}
	return s.coarse[p][c], true
}

// CoarseMoves returns the movements of one DOF indexed by partition code.
func (s *Snapshot) CoarseMoves(c partition.Coord) [partition.CoarseSlots]float64 {
	var out [partition.CoarseSlots]float64
	if !c.Valid() {
		return out
	}
	for i := range out {
		out[i] = s.coarse[i][c].Move
	}
	return out
}

// CoarseErrors is CoarseMoves for the uncertainties.
func (s *Snapshot) CoarseErrors(c partition.Coord) [partition.CoarseSlots]float64 {
	var out [partition.CoarseSlots]float64
	if !c.Valid() {
		return out
	}
	for i := range out {
		out[i] = s.coarse[i][c].Err
	}
	return out
}

// #endregion coarse

// #region fine
// Fine returns the observation at a 1-based fine index.
func (s *Snapshot) Fine(index int, c partition.Coord) (Observation, bool) {
	if index < 1 || index > partition.FineSlots || !c.Valid() {
		return Observation{}, false
	}
	return s.fine[index-1][c], true
}

// FineMoves returns the movements of one DOF; element i is fine index i+1.
func (s *Snapshot) FineMoves(c partition.Coord) []float64 {
	out := make([]float64, partition.FineSlots)
	if !c.Valid() {
		return out
	}
	for i := range out {
		out[i] = s.fine[i][c].Move
	}
	return out
}

// FineErrors is FineMoves for the uncertainties.
func (s *Snapshot) FineErrors(c partition.Coord) []float64 {
	out := make([]float64, partition.FineSlots)
	if !c.Valid() {
		return out
	}
	for i := range out {
		out[i] = s.fine[i][c].Err
	}
	return out
}

// #endregion fine
