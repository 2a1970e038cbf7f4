package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/pacelab/segscout/internal/clock/system"
	"github.com/pacelab/segscout/internal/crawler"
	"github.com/pacelab/segscout/internal/geo"
	"github.com/pacelab/segscout/internal/store"
	"github.com/pacelab/segscout/internal/strava"
)

var (
	swLat, swLng float64
	neLat, neLng float64
	boundOffset  float64
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Discover segments inside a bound",
	Long: `Recursively explores the given bound against the discovery API.
Regions proven complete are memoized, so re-running over the same bound
only queries areas not yet exhausted.`,

	RunE: runCrawl,
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	bound := geo.Bound{
		SW: geo.LatLng{Lat: swLat, Lng: swLng},
		NE: geo.LatLng{Lat: neLat, Lng: neLng},
	}.Offset(boundOffset)
	if err := bound.Validate(); err != nil {
		return err
	}

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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := c.Run(ctx, bound)
	if err != nil {
		return fmt.Errorf("run crawl: %w", err)
	}
	return printJSON(summary)
}

func closeStore(close func() error) {
	if err := close(); err != nil && logger != nil {
		logger.Warn("close store: " + err.Error())
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	crawlCmd.Flags().Float64Var(&swLat, "sw-lat", 0, "south-west corner latitude")
	crawlCmd.Flags().Float64Var(&swLng, "sw-lng", 0, "south-west corner longitude")
	crawlCmd.Flags().Float64Var(&neLat, "ne-lat", 0, "north-east corner latitude")
	crawlCmd.Flags().Float64Var(&neLng, "ne-lng", 0, "north-east corner longitude")
	crawlCmd.Flags().Float64Var(&boundOffset, "offset", 0, "uniform delta added to every coordinate")
	_ = crawlCmd.MarkFlagRequired("sw-lat")
	_ = crawlCmd.MarkFlagRequired("sw-lng")
	_ = crawlCmd.MarkFlagRequired("ne-lat")
	_ = crawlCmd.MarkFlagRequired("ne-lng")
	rootCmd.AddCommand(crawlCmd)
}
