// Package metrics declares prometheus collectors additive to the JSON
// contract of spec.md §6: cache hit/miss counters, venue fetch latency,
// and the arbitrage opportunity count. No other package in the module
// imports it, so the collectors are neither registered nor updated.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictmkt_cache_hits_total",
		Help: "Cache region hits, by region.",
	}, []string{"region"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictmkt_cache_misses_total",
		Help: "Cache region misses, by region.",
	}, []string{"region"})

	FetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "predictmkt_venue_fetch_duration_seconds",
		Help:    "Venue adapter fetch_markets latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"venue"})

	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictmkt_venue_fetch_errors_total",
		Help: "Venue adapter fetch failures, by venue.",
	}, []string{"venue"})

	ArbitrageOpportunities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "predictmkt_arbitrage_opportunities",
		Help: "Current count of cached unified markets with a live arbitrage opportunity.",
	})

	UnifiedMarkets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "predictmkt_unified_markets",
		Help: "Current count of cached unified markets.",
	})
)

// ObserveFetch records a venue fetch's latency and, on error, bumps
// the error counter for that venue.
func ObserveFetch(venue string, start time.Time, err error) {
	FetchLatency.WithLabelValues(venue).Observe(time.Since(start).Seconds())
	if err != nil {
		FetchErrors.WithLabelValues(venue).Inc()
	}
}
