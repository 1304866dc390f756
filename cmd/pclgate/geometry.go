package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/pclgate/internal/config"
	"github.com/danielpatrickdp/pclgate/internal/geometry"
)

var geometryListen string

var geometryCmd = &cobra.Command{
	Use:   "geometry",
	Short: "Geometry table utilities",
}

var geometryServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the static geometry table over gRPC",
	Long: `Loads geometry.static and answers AlignableFromLabel and Resolve calls so
that several pclgate instances can share one table via geometry.remote.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ln, err := net.Listen("tcp", geometryListen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", geometryListen, err)
		}
		return runGeometryServe(ctx, cfg, ln, logger)
	},
}

func init() {
	geometryServeCmd.Flags().StringVar(&geometryListen, "listen", ":9090", "gRPC listen address")
	geometryCmd.AddCommand(geometryServeCmd)
}

// #region geometry-serve
func runGeometryServe(ctx context.Context, cfg *config.Config, ln net.Listener, logger *zap.Logger) error {
	if cfg.Geometry.Static == "" {
		ln.Close()
		return fmt.Errorf("%w: geometry.static is required to serve geometry", config.ErrInvalid)
	}
	table, err := geometry.LoadStatic(cfg.Geometry.Static)
	if err != nil {
		ln.Close()
		return err
	}

	srv := grpc.NewServer()
	geometry.RegisterServer(srv, geometry.NewServer(table))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving geometry",
			zap.String("addr", ln.Addr().String()),
			zap.Int("elements", table.Len()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping geometry server")
		srv.GracefulStop()
		return nil
	})
	return g.Wait()
}

// #endregion geometry-serve
