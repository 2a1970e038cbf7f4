// Package metrics exposes Prometheus collectors for the crawl and
// enrichment pipelines.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discoveryCallsTotal         *prometheus.CounterVec
	segmentsDiscoveredTotal     prometheus.Counter
	regionsExploredTotal        prometheus.Counter
	enrichmentTotal             *prometheus.CounterVec
	externalCallDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors on the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		discoveryCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segscout_discovery_calls_total",
				Help: "Total discovery API calls, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		segmentsDiscoveredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "segscout_segments_discovered_total",
				Help: "Total new segments ingested into the store.",
			},
		)

		regionsExploredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "segscout_regions_explored_total",
				Help: "Total regions proven exhaustively explored.",
			},
		)

		enrichmentTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segscout_enrichment_total",
				Help: "Total enrichment attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		externalCallDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "segscout_external_call_duration_seconds",
				Help:    "Latency of external calls, labeled by call kind.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"call"},
		)
	})
}

// DiscoveryCall counts one discovery attempt by outcome (ok/error).
func DiscoveryCall(outcome string) {
	if discoveryCallsTotal != nil {
		discoveryCallsTotal.WithLabelValues(outcome).Inc()
	}
}

// SegmentsDiscovered counts newly ingested segments.
func SegmentsDiscovered(n int) {
	if segmentsDiscoveredTotal != nil && n > 0 {
		segmentsDiscoveredTotal.Add(float64(n))
	}
}

// RegionExplored counts one region proven complete.
func RegionExplored() {
	if regionsExploredTotal != nil {
		regionsExploredTotal.Inc()
	}
}

// Enrichment counts one enrichment attempt by outcome (ok/error).
func Enrichment(outcome string) {
	if enrichmentTotal != nil {
		enrichmentTotal.WithLabelValues(outcome).Inc()
	}
}

// ExternalCall observes the latency of one external call.
func ExternalCall(call string, d time.Duration) {
	if externalCallDurationSeconds != nil {
		externalCallDurationSeconds.WithLabelValues(call).Observe(d.Seconds())
	}
}
