package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pacelab/segscout/internal/api"
	"github.com/pacelab/segscout/internal/clock/system"
	"github.com/pacelab/segscout/internal/crawler"
	"github.com/pacelab/segscout/internal/geo"
	"github.com/pacelab/segscout/internal/store"
	"github.com/pacelab/segscout/internal/strava"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the crawl trigger and read API",
	Long: `Starts the HTTP surface: POST /v1/crawls triggers a crawl over a
bound, GET /v1/segments returns the ranked view, GET /v1/regions the
exploration memo, plus /healthz and /metrics.`,

	RunE: runServe,
}

// crawlerRunner adapts Crawler.Run to the api.CrawlRunner interface.
type crawlerRunner struct {
	c *crawler.Crawler
}

func (r crawlerRunner) Crawl(ctx context.Context, bound geo.Bound) (crawler.Summary, error) {
	return r.c.Run(ctx, bound)
}

func runServe(cmd *cobra.Command, _ []string) error {
	segments, err := store.OpenSegments(cfg.SegmentsPath(), logger)
	if err != nil {
		return fmt.Errorf("open segment store: %w", err)
	}
	defer closeStore(segments.Close)

	regions, err := store.OpenRegions(cfg.RegionsPath(), logger)
	if err != nil {
		return fmt.Errorf("open region store: %w", err)
	}
	defer closeStore(regions.Close)

	client := strava.NewClient(cfg.Discovery.BaseURL, cfg.Discovery.AccessToken, cfg.HTTPTimeout(), logger)
	c := crawler.New(
		client,
		client,
		segments,
		regions,
		rate.NewLimiter(rate.Limit(cfg.Crawler.RateLimitRPS), cfg.Crawler.RateLimitBurst),
		crawler.NewRetryPolicy(),
		system.New(),
		logger,
		crawler.Config{
			MaxDepth: cfg.Crawler.MaxDepth,
			PageSize: cfg.Crawler.PageSize,
			Activity: cfg.Crawler.Activity,
		},
	)

	server := api.NewServer(crawlerRunner{c: c}, segments, regions, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
