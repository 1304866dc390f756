package thresholds

import "github.com/danielpatrickdp/pclgate/internal/partition"

// #region thresholds
// Thresholds holds the per-DOF cuts for one partition, in reporting units
// (um and urad).
type Thresholds struct {
	Cut         [partition.NumCoords]float64 `json:"cut"`       // minimum significant movement
	SigCut      [partition.NumCoords]float64 `json:"sig_cut"`   // minimum movement/error ratio
	MaxMoveCut  [partition.NumCoords]float64 `json:"max_move"`  // hard veto on movement
	MaxErrorCut [partition.NumCoords]float64 `json:"max_error"` // hard veto on uncertainty
}

// #endregion thresholds

// #region table
// Table is the full threshold configuration for one run, keyed by
// partition name.
type Table struct {
	MinRecords int                   `json:"min_records"`
	Partitions map[string]Thresholds `json:"partitions"`
}

// For returns the thresholds for a partition name.
func (t Table) For(name string) (Thresholds, bool) {
	th, ok := t.Partitions[name]
	return th, ok
}

// Names returns the configured partition names in partition code order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t.Partitions))
	for _, p := range partition.All {
		if _, ok := t.Partitions[p.Name()]; ok {
			names = append(names, p.Name())
		}
	}
	return names
}

// Clone returns a copy that shares nothing with t.
func (t Table) Clone() Table {
	out := Table{MinRecords: t.MinRecords, Partitions: make(map[string]Thresholds, len(t.Partitions))}
	for k, v := range t.Partitions {
		out.Partitions[k] = v
	}
	return out
}

// #endregion table

// #region defaults
// DefaultTable returns the thresholds used when no table file is given.
func DefaultTable() Table {
	coarse := Thresholds{
		Cut:         [6]float64{5, 5, 15, 30, 30, 30},
		SigCut:      [6]float64{2.5, 2.5, 2.5, 2.5, 2.5, 2.5},
		MaxMoveCut:  [6]float64{200, 200, 200, 200, 200, 200},
		MaxErrorCut: [6]float64{10, 10, 10, 30, 30, 30},
	}
	fine := Thresholds{
		Cut:         [6]float64{10, 10, 20, 50, 50, 50},
		SigCut:      [6]float64{2.5, 2.5, 2.5, 2.5, 2.5, 2.5},
		MaxMoveCut:  [6]float64{300, 300, 300, 500, 500, 500},
		MaxErrorCut: [6]float64{30, 30, 30, 100, 100, 100},
	}
	t := Table{MinRecords: 25000, Partitions: make(map[string]Thresholds, len(partition.All))}
	for _, p := range partition.All {
		if p.IsFine() {
			t.Partitions[p.Name()] = fine
		} else {
			t.Partitions[p.Name()] = coarse
		}
	}
	return t
}

// #endregion defaults
