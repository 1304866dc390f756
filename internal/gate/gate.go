package gate

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/pclgate/internal/partition"
	"github.com/danielpatrickdp/pclgate/internal/thresholds"
)

// #region gate
// Gate evaluates single alignment corrections against the threshold table.
type Gate struct {
	table  thresholds.Table
	logger *zap.Logger
}

// NewGate creates a gate over the given table. A nil logger discards output.
func NewGate(table thresholds.Table, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{table: table, logger: logger}
}

// Evaluate runs the tiers in order: max movement veto, then cutoff, then
// max error veto, then significance. Each tier that fires ends evaluation.
// move and err are in reporting units; c must be a valid coordinate.
func (g *Gate) Evaluate(label uint64, p partition.Partition, c partition.Coord, move, err float64) Outcome {
	out := Outcome{Label: label, Partition: p, Coord: c, Move: move, Err: err}

	th, ok := g.table.For(p.Name())
	if !ok {
		// zero thresholds: any real movement vetoes
		g.logger.Warn("no thresholds configured for partition, using zero cuts",
			zap.String("partition", p.Name()))
	}
	cut := th.Cut[c]
	sig := th.SigCut[c]
	maxMove := th.MaxMoveCut[c]
	maxErr := th.MaxErrorCut[c]

	g.logger.Debug("evaluating correction",
		zap.Uint64("label", label),
		zap.String("partition", p.Name()),
		zap.Stringer("coord", c),
		zap.Float64("movement", move),
		zap.Float64("error", err),
		zap.Float64("cutoff", cut),
		zap.Float64("significance", sig),
		zap.Float64("max_error", maxErr),
		zap.Float64("max_movement", maxMove),
	)

	absMove := math.Abs(move)

	// --- Hard veto: movement ---
	if absMove > maxMove {
		out.Verdict = VerdictExceedsThreshold
		out.Bits = ExceedsThreshold
		out.Reason = fmt.Sprintf("movement %.4g exceeds maximum %.4g", absMove, maxMove)
		g.logger.Warn("aborting payload creation: exceeding maximum thresholds for movement",
			zap.Float64("movement", absMove),
			zap.String("partition", p.Name()),
			zap.Stringer("coord", c))
		return out
	}

	// NaN compares false here and stays within the cutoff
	if !(absMove > cut) {
		out.Verdict = VerdictWithinCutoff
		out.Reason = fmt.Sprintf("movement %.4g within cutoff %.4g", absMove, cut)
		return out
	}
	out.Bits = ExceedsCutoff

	// --- Hard veto: uncertainty ---
	if math.Abs(err) > maxErr {
		out.Verdict = VerdictExceedsMaxError
		out.Bits |= ExceedsMaxError
		out.Reason = fmt.Sprintf("error %.4g exceeds maximum %.4g", math.Abs(err), maxErr)
		g.logger.Warn("aborting payload creation: exceeding maximum thresholds for error",
			zap.Float64("error", math.Abs(err)),
			zap.String("partition", p.Name()),
			zap.Stringer("coord", c))
		return out
	}

	if ratio := math.Abs(move / err); ratio < sig {
		out.Verdict = VerdictBelowSignificance
		out.Bits |= BelowSignificance
		out.Reason = fmt.Sprintf("significance %.4g below %.4g", ratio, sig)
		return out
	}

	out.Verdict = VerdictSignificant
	out.Reason = fmt.Sprintf("significant movement %.4g +/- %.4g", move, err)
	g.logger.Info("correction will trigger a new alignment payload",
		zap.Float64("movement", move),
		zap.Float64("error", err),
		zap.String("partition", p.Name()),
		zap.Stringer("coord", c))
	return out
}

// #endregion gate
