package reader

import (
	"github.com/danielpatrickdp/pclgate/internal/gate"
	"github.com/danielpatrickdp/pclgate/internal/partition"
)

// NoExitCode is the exit message recorded when the end file cannot be read.
const NoExitCode = "no exit code found"

// DefaultExitCode is kept when no exit line could be parsed.
const DefaultExitCode = -1

// #region files
// Files names the three pede outputs of one calibration run.
type Files struct {
	End    string `yaml:"end" json:"end"`
	Log    string `yaml:"log" json:"log"`
	Result string `yaml:"result" json:"result"`
}

// #endregion files

// #region observation
// Observation is one movement with its uncertainty, in reporting units.
// Both values always come from the same result line.
type Observation struct {
	Move float64 `json:"move"`
	Err  float64 `json:"err"`
}

// CoarseTable holds one observation per coarse partition slot and DOF.
type CoarseTable [partition.CoarseSlots][partition.NumCoords]Observation

// FineTable holds one observation per ladder/panel slot and DOF. Row i is
// fine index i+1.
type FineTable [partition.FineSlots][partition.NumCoords]Observation

// #endregion observation

// #region results
// Results is the decision record handed to reporting and publication.
type Results struct {
	Published           bool            `json:"published"`
	UpdateDB            bool            `json:"update_db"`
	Vetoed              bool            `json:"vetoed"`
	Status              gate.StatusBits `json:"status_bits"`
	NRecords            int             `json:"n_records"`
	ExitCode            int             `json:"exit_code"`
	ExitMessage         string          `json:"exit_message"`
	Binaries            int             `json:"binaries"`
	RecordsBelowMinimum bool            `json:"records_below_minimum"`
	Approvals           int             `json:"approvals"`
	Vetoes              int             `json:"vetoes"`
}

func (r Results) ExceedsThresholds() bool { return r.Status.Has(gate.ExceedsThreshold) }
func (r Results) ExceedsCutoffs() bool { return r.Status.Has(gate.ExceedsCutoff) }
func (r Results) ExceedsMaxError() bool { return r.Status.Has(gate.ExceedsMaxError) }
func (r Results) BelowSignificance() bool { return r.Status.Has(gate.BelowSignificance) }

// #endregion results
