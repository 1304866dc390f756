package reader

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/pclgate/internal/geometry"
	"github.com/danielpatrickdp/pclgate/internal/partition"
)

// minResultTokens is label, two positional columns, movement, error.
const minResultTokens = 5

// Record is one usable line of the result file after unit conversion.
type Record struct {
	Label     uint64
	ElementID uint32
	Partition partition.Partition
	Coord     partition.Coord
	Move      float64
	Err       float64

	Attributes geometry.Attributes
}

func (b *builder) readResultFile(ctx context.Context) error {
	// Decision flags restart here, including the log file's record gate.
	b.tally.UpdateDB = false
	b.tally.VetoUpdateDB = false

	f, err := os.Open(b.cfg.Files.Result)
	if err != nil {
		b.logger.Error("could not read millepede result-file", zap.String("path", b.cfg.Files.Result), zap.Error(err))
		b.tally.UpdateDB = false
		b.nrec = 0
		return nil
	}
	defer f.Close()

	b.logger.Info("reading millepede result-file", zap.String("path", b.cfg.Files.Result))
	sc := newScanner(f)
	sc.Scan() // header

	lineNo := 1
	for sc.Scan() {
		lineNo++
		rec, ok, err := b.parseResultLine(ctx, lineNo, sc.Text())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		b.book(rec)
	}
	if err := sc.Err(); err != nil {
		b.logger.Error("scan result-file", zap.Error(err))
	}
	return nil
}

// parseResultLine returns ok=false for lines that are skipped. A non-nil
// error aborts the run.
func (b *builder) parseResultLine(ctx context.Context, lineNo int, line string) (Record, bool, error) {
	tokens := strings.Fields(line)
	if len(tokens) < minResultTokens {
		return Record{}, false, nil
	}

	label, err := strconv.ParseUint(tokens[0], 10, 64)
	if err != nil {
		b.logger.Debug("skipping result line with malformed label", zap.Int("line", lineNo), zap.String("token", tokens[0]))
		return Record{}, false, nil
	}
	coord := partition.CoordFromLabel(label)
	if !coord.Valid() {
		b.logger.Error("currently not able to handle DOF", zap.Uint64("label", label), zap.Stringer("coord", coord))
		return Record{}, false, nil
	}

	move, err1 := strconv.ParseFloat(tokens[3], 64)
	uncert, err2 := strconv.ParseFloat(tokens[4], 64)
	if err1 != nil || err2 != nil || !finite(move) || !finite(uncert) {
		b.logger.Debug("skipping result line with malformed values", zap.Int("line", lineNo), zap.String("line_text", line))
		return Record{}, false, nil
	}

	rec := Record{
		Label:     label,
		Coord:     coord,
		Move:      partition.Convert(coord, move),
		Err:       partition.Convert(coord, uncert),
		Partition: partition.NotInPCL,
	}

	al, found, err := b.cfg.Labeler.AlignableFromLabel(ctx, label)
	if err != nil {
		return Record{}, false, fmt.Errorf("label %d: %w", label, err)
	}
	if found {
		rec.ElementID = al.ID
		if hasPCLNumbering(al.Type) {
			rec.Attributes, err = b.cfg.Resolver.Resolve(ctx, al.ID)
			if err != nil {
				return Record{}, false, fmt.Errorf("resolve element %d: %w", al.ID, err)
			}
		}
		rec.Partition, err = partition.Classify(al, rec.Attributes)
		if err != nil {
			b.logger.Error("geometry and partition table disagree", zap.Uint64("label", label), zap.Error(err))
			return Record{}, false, err
		}
	}

	if rec.Partition == partition.NotInPCL {
		b.logger.Error("currently not able to handle coordinate",
			zap.Uint64("label", label),
			zap.Stringer("coord", coord),
			zap.Uint32("id", rec.ElementID),
			zap.Bool("known_label", found))
		return Record{}, false, nil
	}
	return rec, true, nil
}

// book writes the observation and runs the gate.
func (b *builder) book(rec Record) {
	obs := Observation{Move: rec.Move, Err: rec.Err}

	if rec.Partition.IsFine() {
		idx := partition.FineIndex(rec.Partition, rec.Attributes)
		if idx == partition.NotApplicable {
			b.logger.Error("no fine slot for element, observation not stored",
				zap.Uint64("label", rec.Label),
				zap.Uint32("id", rec.ElementID),
				zap.Stringer("partition", rec.Partition))
		} else {
			b.fine[idx-1][rec.Coord] = obs
		}
	} else {
		b.coarse[rec.Partition][rec.Coord] = obs
	}

	out := b.gate.Evaluate(rec.Label, rec.Partition, rec.Coord, rec.Move, rec.Err)
	b.tally.Apply(out)
	b.outcomes = append(b.outcomes, out)
}

// finite rejects the nan and inf spellings strconv accepts.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func hasPCLNumbering(t geometry.StructureType) bool {
	switch t {
	case geometry.TPBHalfBarrel, geometry.TPEHalfCylinder, geometry.TPBLadder, geometry.TPEPanel:
		return true
	}
	return false
}
