// Package leaderboard implements the enrichment collaborator: scraping
// the top leaderboard entry from a segment's public page.
package leaderboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/pacelab/segscout/internal/segment"
)

// Config controls scraper behavior.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements segment.LeaderboardFetcher using a Colly
// collector over the public segment pages.
type Fetcher struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.strava.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	return &Fetcher{
		cfg:    cfg,
		base:   c,
		logger: logger,
	}
}

// Leaderboard fetches the segment page for id and extracts the
// top-ranked entry: athlete name from the second cell of the first
// leaderboard row, time from the last cell.
func (f *Fetcher) Leaderboard(ctx context.Context, id int64) (segment.Leader, error) {
	var (
		leader   segment.Leader
		found    bool
		fetchErr error
	)

	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.Context = ctx
	// Reparse runs revisit pages already seen in this process.
	collector.AllowURLRevisit = true

	collector.OnHTML("table.table-leaderboard tbody tr:first-of-type", func(e *colly.HTMLElement) {
		if found {
			return
		}
		cells := e.DOM.Find("td")
		if cells.Length() < 2 {
			fetchErr = fmt.Errorf("leaderboard row has %d cells", cells.Length())
			return
		}
		leader.Name = cellText(cells, 1)
		leader.Time = cellText(cells, cells.Length()-1)
		found = true
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	url := fmt.Sprintf("%s/segments/%d", strings.TrimRight(f.cfg.BaseURL, "/"), id)
	if err := collector.Visit(url); err != nil {
		return segment.Leader{}, fmt.Errorf("visit %s: %w", url, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return segment.Leader{}, fmt.Errorf("scrape %s: %w", url, fetchErr)
	}
	if !found {
		return segment.Leader{}, fmt.Errorf("no leaderboard table on %s", url)
	}
	f.logger.Debug("scraped leaderboard",
		zap.Int64("segment_id", id),
		zap.String("name", leader.Name),
		zap.String("time", leader.Time),
	)
	return leader, nil
}

func cellText(cells *goquery.Selection, i int) string {
	return strings.TrimSpace(cells.Eq(i).Text())
}
