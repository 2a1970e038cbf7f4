// Package segment defines the core domain types and collaborator
// interfaces for segment discovery and enrichment.
package segment

import (
	"context"
	"time"

	"github.com/pacelab/segscout/internal/geo"
)

// Record is the persisted form of one discovered segment. Base fields
// are set once at discovery and never change; the enrichment fields are
// filled in later by the enrichment pass.
type Record struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	DistanceM      float64    `json:"distance_m"`
	AvgGrade       float64    `json:"avg_grade"`
	TotalClimbM    float64    `json:"total_climb_m"`
	EffortCount    int        `json:"effort_count"`
	StartPoint     geo.LatLng `json:"start_point"`
	EndPoint       geo.LatLng `json:"end_point"`
	EnrichmentName string     `json:"enrichment_name,omitempty"`
	EnrichmentTime string     `json:"enrichment_time,omitempty"`
}

// Enriched reports whether both enrichment fields are present.
func (r Record) Enriched() bool {
	return r.EnrichmentName != "" && r.EnrichmentTime != ""
}

// RegionRecord is the persisted exploration memo for one bound. The
// explored flag is only ever set after the region has been proven to
// hold no undiscovered segments.
type RegionRecord struct {
	Bound    geo.Bound `json:"bound"`
	Explored bool      `json:"explored"`
}

// Candidate is the minimal discovery result: an external segment id.
type Candidate struct {
	ID int64
}

// Leader is the raw enrichment value scraped from a segment's public
// page: the top-ranked athlete's name and effort time string.
type Leader struct {
	Name string
	Time string
}

// Explorer is the external discovery API: up to a page-size worth of
// candidates inside a bound, filtered by activity type.
type Explorer interface {
	Explore(ctx context.Context, bound geo.Bound, activity string) ([]Candidate, error)
}

// DetailFetcher looks up the full base fields for one candidate id.
// A response missing any base field is a fetch failure.
type DetailFetcher interface {
	Detail(ctx context.Context, id int64) (Record, error)
}

// LeaderboardFetcher retrieves the enrichment value for one segment id.
type LeaderboardFetcher interface {
	Leaderboard(ctx context.Context, id int64) (Leader, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
