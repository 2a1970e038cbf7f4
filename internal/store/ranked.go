package store

import (
	"fmt"
	"math"
	"sort"

	"github.com/pacelab/segscout/internal/segment"
)

// segmentURLFormat is the public page for a segment id.
const segmentURLFormat = "https://www.strava.com/segments/%d"

// RankedSegment is the display form of a record: public URL, derived
// pace, and a colour sampled from the pace ramp. Pace is nil for
// records whose enrichment is missing or unparseable.
type RankedSegment struct {
	segment.Record
	URL    string   `json:"url"`
	Pace   *float64 `json:"pace,omitempty"`
	Colour string   `json:"colour"`
}

// RankedView derives pace for every record and returns them ordered by
// descending pace, slowest first. Records without a pace sort last.
// Climb is rounded to two decimals for display.
func (s *SegmentStore) RankedView() []RankedSegment {
	out := make([]RankedSegment, 0, len(s.records))
	for _, r := range s.records {
		ranked := RankedSegment{
			Record: r,
			URL:    fmt.Sprintf(segmentURLFormat, r.ID),
			Colour: paceColour(math.NaN()),
		}
		ranked.TotalClimbM = math.Round(r.TotalClimbM*100) / 100
		if r.EnrichmentTime != "" {
			if pace, err := segment.Pace(r.EnrichmentTime, r.DistanceM); err == nil {
				ranked.Pace = &pace
				ranked.Colour = paceColour(pace)
			}
		}
		out = append(out, ranked)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Pace, out[j].Pace
		switch {
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return *pi > *pj
		}
	})
	return out
}
