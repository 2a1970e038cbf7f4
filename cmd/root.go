// Package cmd defines the CLI commands for the segscout executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pacelab/segscout/internal/config"
	"github.com/pacelab/segscout/internal/logging"
	"github.com/pacelab/segscout/internal/metrics"
)

var (
	cfgFile  string
	location string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "segscout",
	Short: "Incremental discovery of running segments in a geographic area",
	Long: `segscout crawls a rate-limited segment discovery API over a geographic
bound, recursively subdividing any region whose result page is full, and
persists both the discovered segments and a memo of exhaustively explored
regions so repeated runs never re-query complete areas. A second pass
enriches each stored segment with its leaderboard leader.`,

	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if location != "" {
			cfg.Location = location
		}
		logger, err = logging.New(cfg.Logging.Development)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		metrics.Init()
		return nil
	},

	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute is the main entry point.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().StringVarP(&location, "location", "l", "", "named area, selects data/<location>/ stores")
}
