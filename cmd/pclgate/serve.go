package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/pclgate/internal/config"
	"github.com/danielpatrickdp/pclgate/internal/gate"
	"github.com/danielpatrickdp/pclgate/internal/metrics"
	"github.com/danielpatrickdp/pclgate/internal/replay"
	"github.com/danielpatrickdp/pclgate/internal/report"
	"github.com/danielpatrickdp/pclgate/internal/state"
)

var backfillRuns int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run history and decision metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ln, err := net.Listen("tcp", cfg.Server.Listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Server.Listen, err)
		}
		return runServe(ctx, cfg, ln, logger)
	},
}

func init() {
	serveCmd.Flags().IntVar(&backfillRuns, "backfill", 50, "seed metrics from the N most recent stored runs")
}

// #region serve
func runServe(ctx context.Context, cfg *config.Config, ln net.Listener, logger *zap.Logger) error {
	if cfg.History.Path == "" {
		ln.Close()
		return fmt.Errorf("%w: history.path is required to serve", config.ErrInvalid)
	}
	store, err := state.NewStore(cfg.History.Path)
	if err != nil {
		ln.Close()
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(reg)
	if n, err := backfill(store, rec, backfillRuns); err != nil {
		logger.Warn("metrics backfill incomplete", zap.Int("runs", n), zap.Error(err))
	} else {
		logger.Info("metrics backfilled", zap.Int("runs", n))
	}

	srv := report.NewServer(store, reg, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down report server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// backfill replays the last n stored runs into rec, oldest first, so the
// gauges describe the most recent run.
func backfill(store *state.Store, rec *metrics.Recorder, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	runs, err := store.ListRuns(n)
	if err != nil {
		return 0, err
	}
	for i := len(runs) - 1; i >= 0; i-- {
		rows, err := store.Records(runs[i].RunID)
		if err != nil {
			return len(runs) - 1 - i, err
		}
		entries, err := replay.EntriesFromProvenance(rows)
		if err != nil {
			return len(runs) - 1 - i, fmt.Errorf("run %s: %w", runs[i].RunID, err)
		}
		outcomes := make([]gate.Outcome, len(entries))
		for j, e := range entries {
			outcomes[j] = gate.Outcome{
				Label:     e.Label,
				Partition: e.Partition,
				Coord:     e.Coord,
				Move:      e.Move,
				Err:       e.Err,
				Verdict:   e.Verdict,
			}
		}
		rec.Restore(runs[i].Results, outcomes)
	}
	return len(runs), nil
}

// #endregion serve
