// Package crawler implements the recursive spatial-subdivision
// discovery algorithm. A bound is queried against the discovery API;
// if the result page is saturated the bound is split into four
// quadrants and each is explored in turn, bottom-left first. Regions
// proven complete are memoized so later runs skip them entirely.
//
// The traversal is an explicit worklist rather than recursion: a stack
// of pending tasks plus a side table counting each parent's unresolved
// children. A parent is explored only once all four children resolve
// explored.
package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pacelab/segscout/internal/geo"
	"github.com/pacelab/segscout/internal/metrics"
	"github.com/pacelab/segscout/internal/segment"
	"github.com/pacelab/segscout/internal/store"
)

// DefaultPageSize is the discovery API's page cap. A page this full may
// be truncating real results, so a full page always forces subdivision.
const DefaultPageSize = 10

// Config holds the settings for a crawl session.
type Config struct {
	// MaxDepth bounds subdivision; a bound deeper than this is
	// abandoned (not marked explored) rather than split further.
	MaxDepth int
	// PageSize is the discovery page cap (DefaultPageSize unless the
	// API says otherwise).
	PageSize int
	// Activity filters discovery results by activity type.
	Activity string
}

// Crawler orchestrates discovery over the two stores. It assumes
// exclusive ownership of both stores for the duration of a run.
type Crawler struct {
	explorer segment.Explorer
	details  segment.DetailFetcher
	segments *store.SegmentStore
	regions  *store.RegionStore
	limiter  *rate.Limiter
	retry    *RetryPolicy
	clock    segment.Clock
	logger   *zap.Logger
	cfg      Config
}

// Summary reports the outcome of one crawl run. Partial completion is
// a normal outcome, not an error.
type Summary struct {
	RunID          string    `json:"run_id"`
	Bound          geo.Bound `json:"bound"`
	Explored       bool      `json:"explored"`
	DiscoveryCalls int       `json:"discovery_calls"`
	SegmentsAdded  int       `json:"segments_added"`
	RegionsSkipped int       `json:"regions_skipped"`
	DetailFailures []int64   `json:"detail_failures,omitempty"`
	Started        time.Time `json:"started"`
	Finished       time.Time `json:"finished"`
}

// New constructs a Crawler. A nil limiter disables rate limiting and a
// nil logger discards logs.
func New(
	explorer segment.Explorer,
	details segment.DetailFetcher,
	segments *store.SegmentStore,
	regions *store.RegionStore,
	limiter *rate.Limiter,
	retry *RetryPolicy,
	clock segment.Clock,
	logger *zap.Logger,
	cfg Config,
) *Crawler {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if retry == nil {
		retry = NewRetryPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Activity == "" {
		cfg.Activity = "running"
	}
	return &Crawler{
		explorer: explorer,
		details:  details,
		segments: segments,
		regions:  regions,
		limiter:  limiter,
		retry:    retry,
		clock:    clock,
		logger:   logger,
		cfg:      cfg,
	}
}

// task is one pending bound visit. parent indexes the node table, -1
// for the root.
type task struct {
	bound  geo.Bound
	depth  int
	parent int
}

// node tracks a subdivided bound waiting on its children.
type node struct {
	bound       geo.Bound
	parent      int
	pending     int
	allExplored bool
}

// Run explores the bound depth-first until every reachable region is
// either memoized explored or abandoned at MaxDepth. Stores are saved
// after every ingestion step, so an interrupted run resumes via the
// memo instead of re-fetching.
func (c *Crawler) Run(ctx context.Context, bound geo.Bound) (Summary, error) {
	if err := bound.Validate(); err != nil {
		return Summary{}, fmt.Errorf("validate bound: %w", err)
	}

	summary := Summary{
		RunID:   uuid.NewString(),
		Bound:   bound,
		Started: c.clock.Now(),
	}
	log := c.logger.With(zap.String("run_id", summary.RunID))
	log.Info("crawl started", zap.String("bound", bound.String()), zap.Int("max_depth", c.cfg.MaxDepth))

	var nodes []node
	stack := []task{{bound: bound, depth: 0, parent: -1}}

	// resolve bubbles a child's explored status up the node table,
	// marking each parent explored once all four children are.
	resolve := func(parent int, explored bool) error {
		for parent >= 0 {
			n := &nodes[parent]
			n.pending--
			n.allExplored = n.allExplored && explored
			if n.pending > 0 {
				return nil
			}
			explored = n.allExplored
			if explored {
				c.regions.SetExplored(n.bound, true)
				metrics.RegionExplored()
				if err := c.regions.Save(); err != nil {
					return fmt.Errorf("save regions: %w", err)
				}
			}
			parent = n.parent
		}
		summary.Explored = explored
		return nil
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			summary.Finished = c.clock.Now()
			return summary, fmt.Errorf("crawl interrupted: %w", err)
		}

		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if t.depth > c.cfg.MaxDepth {
			if err := resolve(t.parent, false); err != nil {
				return summary, err
			}
			continue
		}

		// Memoized short-circuit: no external call for a region a
		// prior run (or an earlier step of this one) proved complete.
		if c.regions.IsExplored(t.bound) {
			if err := resolve(t.parent, true); err != nil {
				return summary, err
			}
			continue
		}

		candidates, err := c.discover(ctx, t.bound)
		if err != nil {
			if ctx.Err() != nil {
				summary.Finished = c.clock.Now()
				return summary, fmt.Errorf("crawl interrupted: %w", err)
			}
			log.Warn("discovery failed, skipping region",
				zap.String("bound", t.bound.String()),
				zap.Int("depth", t.depth),
				zap.Error(err),
			)
			summary.RegionsSkipped++
			if err := resolve(t.parent, false); err != nil {
				return summary, err
			}
			continue
		}
		summary.DiscoveryCalls++
		log.Info("retrieved candidates",
			zap.Int("count", len(candidates)),
			zap.Int("depth", t.depth),
			zap.String("bound", t.bound.String()),
		)

		added, failures := c.segments.UpsertNew(ctx, candidates, retryingDetail{c: c})
		summary.SegmentsAdded += added
		for _, f := range failures {
			summary.DetailFailures = append(summary.DetailFailures, f.ID)
		}
		metrics.SegmentsDiscovered(added)
		if err := c.segments.Save(); err != nil {
			return summary, fmt.Errorf("save segments: %w", err)
		}

		if len(candidates) < c.cfg.PageSize {
			// Saturation test passed: one query covered the region.
			c.regions.SetExplored(t.bound, true)
			metrics.RegionExplored()
			if err := c.regions.Save(); err != nil {
				return summary, fmt.Errorf("save regions: %w", err)
			}
			if err := resolve(t.parent, true); err != nil {
				return summary, err
			}
			continue
		}

		// Full page: assume truncation and subdivide. Children are
		// pushed in reverse so the bottom-left quadrant pops first.
		nodes = append(nodes, node{
			bound:       t.bound,
			parent:      t.parent,
			pending:     4,
			allExplored: true,
		})
		self := len(nodes) - 1
		quadrants := t.bound.Split()
		for i := len(quadrants) - 1; i >= 0; i-- {
			stack = append(stack, task{bound: quadrants[i], depth: t.depth + 1, parent: self})
		}
	}

	summary.Finished = c.clock.Now()
	log.Info("crawl finished",
		zap.Bool("explored", summary.Explored),
		zap.Int("discovery_calls", summary.DiscoveryCalls),
		zap.Int("segments_added", summary.SegmentsAdded),
		zap.Int("regions_skipped", summary.RegionsSkipped),
	)
	return summary, nil
}

// discover queries the discovery API for one bound, with rate limiting
// and bounded retries.
func (c *Crawler) discover(ctx context.Context, bound geo.Bound) ([]segment.Candidate, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
		start := time.Now()
		candidates, err := c.explorer.Explore(ctx, bound, c.cfg.Activity)
		metrics.ExternalCall(string(segment.CallDiscovery), time.Since(start))
		if err == nil {
			metrics.DiscoveryCall("ok")
			return candidates, nil
		}
		lastErr = err
		if !c.retry.ShouldRetry(err, attempt) {
			break
		}
		if err := sleep(ctx, c.retry.Backoff(attempt)); err != nil {
			lastErr = err
			break
		}
	}
	metrics.DiscoveryCall("error")
	return nil, &segment.ExternalCallError{Kind: segment.CallDiscovery, Err: lastErr}
}

// retryingDetail wraps the crawler's detail fetcher with the same rate
// limiting and retry treatment as discovery.
type retryingDetail struct {
	c *Crawler
}

func (r retryingDetail) Detail(ctx context.Context, id int64) (segment.Record, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := r.c.limiter.Wait(ctx); err != nil {
			return segment.Record{}, fmt.Errorf("rate limit wait: %w", err)
		}
		start := time.Now()
		rec, err := r.c.details.Detail(ctx, id)
		metrics.ExternalCall(string(segment.CallDetail), time.Since(start))
		if err == nil {
			return rec, nil
		}
		lastErr = err
		if !r.c.retry.ShouldRetry(err, attempt) {
			break
		}
		if err := sleep(ctx, r.c.retry.Backoff(attempt)); err != nil {
			lastErr = err
			break
		}
	}
	return segment.Record{}, &segment.ExternalCallError{Kind: segment.CallDetail, Err: lastErr}
}
