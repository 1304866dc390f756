package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/pclgate/internal/config"
	"github.com/danielpatrickdp/pclgate/internal/logging"
)

// exitNotPublished is returned by `read --exit-status` when the run must not
// be published.
const exitNotPublished = 3

var errNotPublished = errors.New("alignment not published")

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pclgate",
	Short: "pclgate - alignment calibration decision engine",
	Long: `pclgate reads the end, log and result files of one pede alignment fit,
judges every correction against per-partition thresholds and decides
whether the new alignment may be published.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if logFormat != "" {
			cfg.Logging.Format = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err = logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pclgate.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override logging.format (json|console)")

	rootCmd.AddCommand(readCmd, serveCmd, geometryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errNotPublished) {
			os.Exit(exitNotPublished)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
