package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/pacelab/segscout/internal/clock/system"
	"github.com/pacelab/segscout/internal/crawler"
	"github.com/pacelab/segscout/internal/enrich"
	"github.com/pacelab/segscout/internal/leaderboard"
	"github.com/pacelab/segscout/internal/store"
)

var reparse bool

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Backfill leaderboard data for stored segments",
	Long: `Fetches the public leaderboard for each stored segment missing its
enrichment fields and records the top entry's name and time. Use
--reparse to re-fetch every segment, not just those missing data.`,

	RunE: runEnrich,
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	segments, err := store.OpenSegments(cfg.SegmentsPath(), logger)
	if err != nil {
		return fmt.Errorf("open segment store: %w", err)
	}
	defer closeStore(segments.Close)

	fetcher := leaderboard.New(leaderboard.Config{
		BaseURL:   cfg.Leaderboard.BaseURL,
		UserAgent: cfg.Leaderboard.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
	}, logger)

	pass := enrich.New(
		segments,
		fetcher,
		rate.NewLimiter(rate.Limit(cfg.Crawler.RateLimitRPS), cfg.Crawler.RateLimitBurst),
		crawler.NewRetryPolicy(),
		system.New(),
		logger,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := pass.Run(ctx, reparse)
	if err != nil {
		return fmt.Errorf("run enrichment: %w", err)
	}
	return printJSON(summary)
}

func init() {
	enrichCmd.Flags().BoolVarP(&reparse, "reparse", "r", false, "re-fetch leaderboards for all segments")
	rootCmd.AddCommand(enrichCmd)
}
