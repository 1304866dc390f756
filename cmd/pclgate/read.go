package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/pclgate/internal/config"
	"github.com/danielpatrickdp/pclgate/internal/geometry"
	"github.com/danielpatrickdp/pclgate/internal/metrics"
	"github.com/danielpatrickdp/pclgate/internal/reader"
	"github.com/danielpatrickdp/pclgate/internal/state"
	"github.com/danielpatrickdp/pclgate/internal/thresholds"
)

var (
	endFile     string
	logFile     string
	resultFile  string
	metricsFile string
	exitStatus  bool
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Evaluate one pede run and print the decision",
	Long: `Parses the end, log and result files named in the configuration (or on the
command line), stores the run in the history database and prints the
decision record as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if endFile != "" {
			cfg.Files.End = endFile
		}
		if logFile != "" {
			cfg.Files.Log = logFile
		}
		if resultFile != "" {
			cfg.Files.Result = resultFile
		}

		out, err := runRead(cmd.Context(), cfg, readOptions{MetricsFile: metricsFile}, logger, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if exitStatus && !out.StoreAlignments {
			return errNotPublished
		}
		return nil
	},
}

func init() {
	readCmd.Flags().StringVar(&endFile, "end", "", "pede end file (overrides files.end)")
	readCmd.Flags().StringVar(&logFile, "log", "", "pede log file (overrides files.log)")
	readCmd.Flags().StringVar(&resultFile, "result", "", "pede result file (overrides files.result)")
	readCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write run metrics in Prometheus text format to this file")
	readCmd.Flags().BoolVar(&exitStatus, "exit-status", false, "exit with status 3 when the alignment is not published")
}

// #region read
type readOptions struct {
	MetricsFile string
}

// readOutput is what `pclgate read` prints.
type readOutput struct {
	RunID           string         `json:"run_id,omitempty"`
	StoreAlignments bool           `json:"store_alignments"`
	Results         reader.Results `json:"results"`
	Status          string         `json:"status"`
	Files           reader.Files   `json:"files"`
	Took            string         `json:"took"`
}

func runRead(ctx context.Context, cfg *config.Config, opts readOptions, logger *zap.Logger, w io.Writer) (readOutput, error) {
	if err := cfg.ValidateRead(); err != nil {
		return readOutput{}, err
	}

	table, err := loadThresholds(cfg.Thresholds)
	if err != nil {
		return readOutput{}, err
	}

	src, closeSrc, err := openGeometry(cfg)
	if err != nil {
		return readOutput{}, err
	}
	defer closeSrc()

	r, err := reader.New(reader.Config{
		Files:      cfg.Files,
		Thresholds: table,
		Labeler:    src,
		Resolver:   src,
		Logger:     logger,
	})
	if err != nil {
		return readOutput{}, err
	}

	start := time.Now()
	snap, err := r.Read(ctx)
	if err != nil {
		return readOutput{}, fmt.Errorf("read run: %w", err)
	}
	took := time.Since(start)

	res := snap.Results()
	out := readOutput{
		StoreAlignments: snap.StoreAlignments(),
		Results:         res,
		Status:          res.Status.String(),
		Files:           snap.Files(),
		Took:            took.String(),
	}

	if cfg.History.Path != "" {
		store, err := state.NewStore(cfg.History.Path)
		if err != nil {
			return readOutput{}, err
		}
		defer store.Close()

		rec := state.NewRunRecord(snap)
		if err := store.SaveRun(rec, snap.Outcomes()); err != nil {
			return readOutput{}, err
		}
		out.RunID = rec.RunID
	}

	if opts.MetricsFile != "" {
		reg := prometheus.NewRegistry()
		metrics.New(reg).Observe(res, snap.Outcomes(), took)
		if err := prometheus.WriteToTextfile(opts.MetricsFile, reg); err != nil {
			return readOutput{}, fmt.Errorf("write metrics: %w", err)
		}
	}

	logger.Info("run evaluated",
		zap.String("run_id", out.RunID),
		zap.Bool("store_alignments", out.StoreAlignments),
		zap.Stringer("status", res.Status),
		zap.Int("nrec", res.NRecords),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("took", took))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return readOutput{}, fmt.Errorf("encode result: %w", err)
	}
	return out, nil
}

// #endregion read

// #region collaborators
func loadThresholds(path string) (thresholds.Table, error) {
	if path == "" {
		return thresholds.DefaultTable(), nil
	}
	return thresholds.Load(path)
}

// openGeometry returns the configured geometry source and its cleanup.
func openGeometry(cfg *config.Config) (geometry.Source, func(), error) {
	if cfg.Geometry.Remote != "" {
		remote, err := geometry.NewRemote(cfg.Geometry.Remote, cfg.GeometryTimeout())
		if err != nil {
			return nil, nil, err
		}
		return remote, func() { _ = remote.Close() }, nil
	}
	static, err := geometry.LoadStatic(cfg.Geometry.Static)
	if err != nil {
		return nil, nil, err
	}
	return static, func() {}, nil
}

// #endregion collaborators
