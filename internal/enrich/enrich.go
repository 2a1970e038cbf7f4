// Package enrich implements the second pass over the segment store:
// backfilling the leaderboard name and time for records missing them.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pacelab/segscout/internal/crawler"
	"github.com/pacelab/segscout/internal/metrics"
	"github.com/pacelab/segscout/internal/segment"
	"github.com/pacelab/segscout/internal/store"
)

// Pass drives the leaderboard fetcher over the segment store. It is
// non-recursive: one fetch per pending record, failures logged and
// skipped.
type Pass struct {
	segments *store.SegmentStore
	fetcher  segment.LeaderboardFetcher
	limiter  *rate.Limiter
	retry    *crawler.RetryPolicy
	clock    segment.Clock
	logger   *zap.Logger
}

// Summary reports the outcome of one enrichment run.
type Summary struct {
	RunID     string    `json:"run_id"`
	Attempted int       `json:"attempted"`
	Enriched  int       `json:"enriched"`
	Failed    []int64   `json:"failed,omitempty"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
}

// New constructs a Pass. A nil limiter disables rate limiting and a
// nil logger discards logs.
func New(
	segments *store.SegmentStore,
	fetcher segment.LeaderboardFetcher,
	limiter *rate.Limiter,
	retry *crawler.RetryPolicy,
	clock segment.Clock,
	logger *zap.Logger,
) *Pass {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if retry == nil {
		retry = crawler.NewRetryPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pass{
		segments: segments,
		fetcher:  fetcher,
		limiter:  limiter,
		retry:    retry,
		clock:    clock,
		logger:   logger,
	}
}

// Run enriches every record missing enrichment, or every record when
// reparse is set. The store is persisted after each successful
// application so an interruption loses at most one in-flight fetch.
func (p *Pass) Run(ctx context.Context, reparse bool) (Summary, error) {
	summary := Summary{
		RunID:   uuid.NewString(),
		Started: p.clock.Now(),
	}
	log := p.logger.With(zap.String("run_id", summary.RunID))

	records := p.segments.PendingEnrichment()
	if reparse {
		records = p.segments.All()
	}
	log.Info("enrichment started", zap.Int("pending", len(records)), zap.Bool("reparse", reparse))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			summary.Finished = p.clock.Now()
			return summary, fmt.Errorf("enrichment interrupted: %w", err)
		}
		summary.Attempted++

		leader, err := p.fetch(ctx, rec.ID)
		if err != nil {
			if ctx.Err() != nil {
				summary.Finished = p.clock.Now()
				return summary, fmt.Errorf("enrichment interrupted: %w", err)
			}
			log.Warn("leaderboard fetch failed",
				zap.Int64("segment_id", rec.ID),
				zap.Error(err),
			)
			summary.Failed = append(summary.Failed, rec.ID)
			metrics.Enrichment("error")
			continue
		}

		if _, err := segment.ParseEffortTime(leader.Time); err != nil {
			log.Warn("leaderboard time unparseable",
				zap.Int64("segment_id", rec.ID),
				zap.String("time", leader.Time),
				zap.Error(err),
			)
			summary.Failed = append(summary.Failed, rec.ID)
			metrics.Enrichment("error")
			continue
		}

		if err := p.segments.ApplyEnrichment(rec.ID, leader.Name, leader.Time); err != nil {
			if errors.Is(err, segment.ErrNotFound) {
				log.Error("enrichment target missing from store", zap.Int64("segment_id", rec.ID))
				summary.Failed = append(summary.Failed, rec.ID)
				metrics.Enrichment("error")
				continue
			}
			return summary, fmt.Errorf("apply enrichment: %w", err)
		}
		if err := p.segments.Save(); err != nil {
			return summary, fmt.Errorf("save segments: %w", err)
		}
		log.Info("segment enriched",
			zap.Int64("segment_id", rec.ID),
			zap.String("name", leader.Name),
			zap.String("time", leader.Time),
		)
		summary.Enriched++
		metrics.Enrichment("ok")
	}

	summary.Finished = p.clock.Now()
	log.Info("enrichment finished",
		zap.Int("attempted", summary.Attempted),
		zap.Int("enriched", summary.Enriched),
		zap.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

func (p *Pass) fetch(ctx context.Context, id int64) (segment.Leader, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return segment.Leader{}, fmt.Errorf("rate limit wait: %w", err)
		}
		start := time.Now()
		leader, err := p.fetcher.Leaderboard(ctx, id)
		metrics.ExternalCall(string(segment.CallLeaderboard), time.Since(start))
		if err == nil {
			return leader, nil
		}
		lastErr = err
		if !p.retry.ShouldRetry(err, attempt) {
			break
		}
		if err := sleepCtx(ctx, p.retry.Backoff(attempt)); err != nil {
			lastErr = err
			break
		}
	}
	return segment.Leader{}, &segment.ExternalCallError{Kind: segment.CallLeaderboard, Err: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
