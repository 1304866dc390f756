package gate

import (
	"strings"

	"github.com/danielpatrickdp/pclgate/internal/partition"
)

// #region status-bits
// StatusBits is the compact four-flag summary downstream consumers read.
// Bit positions are fixed.
type StatusBits uint8

const (
	ExceedsThreshold  StatusBits = 1 << iota // bit 0: movement above max_move
	ExceedsCutoff                            // bit 1: movement above cut
	ExceedsMaxError                          // bit 2: error above max_error
	BelowSignificance                        // bit 3: move/error below sig_cut
)

// Has reports whether every bit in f is set.
func (b StatusBits) Has(f StatusBits) bool {
	return b&f == f
}

func (b StatusBits) String() string {
	if b == 0 {
		return "none"
	}
	var parts []string
	if b.Has(ExceedsThreshold) {
		parts = append(parts, "exceeds_threshold")
	}
	if b.Has(ExceedsCutoff) {
		parts = append(parts, "exceeds_cutoff")
	}
	if b.Has(ExceedsMaxError) {
		parts = append(parts, "exceeds_max_error")
	}
	if b.Has(BelowSignificance) {
		parts = append(parts, "below_significance")
	}
	return strings.Join(parts, "|")
}

// #endregion status-bits

// #region verdict
// Verdict names the tier a single correction stopped at.
type Verdict string

const (
	VerdictWithinCutoff      Verdict = "within_cutoff"
	VerdictExceedsThreshold  Verdict = "exceeds_threshold"
	VerdictExceedsMaxError   Verdict = "exceeds_max_error"
	VerdictBelowSignificance Verdict = "below_significance"
	VerdictSignificant       Verdict = "significant"
)

// Vetoes is true for the verdicts that block publication.
func (v Verdict) Vetoes() bool {
	return v == VerdictExceedsThreshold || v == VerdictExceedsMaxError
}

// Approves is true for the verdict that justifies an update.
func (v Verdict) Approves() bool {
	return v == VerdictSignificant
}

// #endregion verdict

// #region outcome
// Outcome is the evaluation of one correction.
type Outcome struct {
	Label     uint64
	Partition partition.Partition
	Coord     partition.Coord
	Move      float64 // reporting units
	Err       float64 // reporting units
	Verdict   Verdict
	Bits      StatusBits // bits this correction contributed
	Reason    string
}

// #endregion outcome

// #region tally
// Tally accumulates outcomes into the run decision. The veto is sticky:
// once set no later approval clears it.
type Tally struct {
	UpdateDB     bool
	VetoUpdateDB bool
	Status       StatusBits
	Approvals    int
	Vetoes       int
}

// Apply folds one outcome into the tally.
func (t *Tally) Apply(o Outcome) {
	t.Status |= o.Bits
	switch {
	case o.Verdict.Vetoes():
		t.VetoUpdateDB = true
		t.Vetoes++
	case o.Verdict.Approves():
		t.UpdateDB = true
		t.Approvals++
	}
}

// StoreAlignments is the publication decision.
func (t Tally) StoreAlignments() bool {
	return t.UpdateDB && !t.VetoUpdateDB
}

// #endregion tally
