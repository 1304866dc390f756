package reader

import (
	"bufio"
	"context"
	"errors"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/pclgate/internal/gate"
	"github.com/danielpatrickdp/pclgate/internal/geometry"
	"github.com/danielpatrickdp/pclgate/internal/thresholds"
)

// maxLineSize bounds a single line of any pede output file.
const maxLineSize = 1 << 20

const tracerName = "github.com/danielpatrickdp/pclgate/internal/reader"

// #region config
// Config wires a Reader to its inputs and collaborators.
type Config struct {
	Files      Files
	Thresholds thresholds.Table
	Labeler    geometry.Labeler
	Resolver   geometry.Resolver
	Logger     *zap.Logger
}

// #endregion config

// #region reader
// Reader turns one triple of pede files into a decision snapshot.
type Reader struct {
	cfg    Config
	logger *zap.Logger
}

// New validates the collaborators and returns a Reader.
func New(cfg Config) (*Reader, error) {
	if cfg.Labeler == nil {
		return nil, errors.New("reader: labeler is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("reader: resolver is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{cfg: cfg, logger: logger}, nil
}

// Read parses the end, log and result files in that order and returns the
// snapshot. Every call starts from zeroed tables, so a Reader may be reused
// across runs. Missing files degrade to "no update"; only an unmappable
// structure or a failing geometry collaborator returns an error.
func (r *Reader) Read(ctx context.Context) (*Snapshot, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "reader.Read",
		trace.WithAttributes(
			attribute.String("pede.end", r.cfg.Files.End),
			attribute.String("pede.log", r.cfg.Files.Log),
			attribute.String("pede.result", r.cfg.Files.Result),
		))
	defer span.End()

	b := &builder{
		cfg:      r.cfg,
		logger:   r.logger,
		gate:     gate.NewGate(r.cfg.Thresholds, r.logger),
		exitCode: DefaultExitCode,
		fine:     new(FineTable),
	}

	b.readEndFile()
	b.readLogFile()
	if err := b.readResultFile(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result file aborted")
		return nil, err
	}

	snap := b.snapshot()
	span.SetAttributes(
		attribute.Bool("published", snap.results.Published),
		attribute.Int("nrec", snap.results.NRecords),
		attribute.Int("status_bits", int(snap.results.Status)),
		attribute.Int("records", len(snap.outcomes)),
	)
	return snap, nil
}

// #endregion reader

// #region builder
// builder holds the mutable state of one Read call.
type builder struct {
	cfg    Config
	logger *zap.Logger
	gate   *gate.Gate

	tally    gate.Tally
	nrec     int
	binaries int
	exitCode int
	exitMsg  string
	belowMin bool

	coarse   CoarseTable
	fine     *FineTable
	outcomes []gate.Outcome
}

func (b *builder) snapshot() *Snapshot {
	res := Results{
		Published:           b.tally.StoreAlignments(),
		UpdateDB:            b.tally.UpdateDB,
		Vetoed:              b.tally.VetoUpdateDB,
		Status:              b.tally.Status,
		NRecords:            b.nrec,
		ExitCode:            b.exitCode,
		ExitMessage:         b.exitMsg,
		Binaries:            b.binaries,
		RecordsBelowMinimum: b.belowMin,
		Approvals:           b.tally.Approvals,
		Vetoes:              b.tally.Vetoes,
	}
	if res.Published && res.RecordsBelowMinimum {
		// the result pass resets the log file's record gate; keep the
		// decision but make the disagreement visible
		b.logger.Warn("run approved although the record count is below the minimum",
			zap.Int("nrec", b.nrec),
			zap.Int("min_records", b.cfg.Thresholds.MinRecords))
	}
	return &Snapshot{
		files:      b.cfg.Files,
		results:    res,
		coarse:     b.coarse,
		fine:       b.fine,
		thresholds: b.cfg.Thresholds.Clone(),
		outcomes:   b.outcomes,
	}
}

// #endregion builder

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}
