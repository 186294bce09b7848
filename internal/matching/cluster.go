package matching

import "github.com/sawpanic/predictmkt/internal/market"

// ConfidenceFunc computes the match confidence between two normalized
// markets. ClusterFunc accepts one so the Aggregator can wrap Confidence
// with a cache-backed memoizing version without the matching engine
// knowing anything about Cache.
type ConfidenceFunc func(a, b market.NormalizedMarket) float64

// Cluster groups a flat sequence of NormalizedMarkets from all venues
// into UnifiedMarkets, respecting the one-per-venue invariant. Empty
// input yields empty output; a single market yields a single-member
// cluster. Ties are broken by input order since markets are scanned
// left to right and every candidate clearing the threshold joins.
func Cluster(markets []market.NormalizedMarket, threshold float64) []market.UnifiedMarket {
	return ClusterFunc(markets, threshold, Confidence)
}

// ClusterFunc is Cluster with an injectable confidence function.
func ClusterFunc(markets []market.NormalizedMarket, threshold float64, confidence ConfidenceFunc) []market.UnifiedMarket {
	n := len(markets)
	processed := make([]bool, n)
	result := make([]market.UnifiedMarket, 0, n)

	for i := 0; i < n; i++ {
		if processed[i] {
			continue
		}
		processed[i] = true

		members := []market.NormalizedMarket{markets[i]}
		var confidences []float64
		venuesInCluster := map[market.VenueTag]bool{markets[i].Venue: true}

		for j := i + 1; j < n; j++ {
			if processed[j] || venuesInCluster[markets[j].Venue] {
				continue
			}
			c := confidence(markets[i], markets[j])
			if c >= threshold {
				members = append(members, markets[j])
				confidences = append(confidences, c)
				venuesInCluster[markets[j].Venue] = true
				processed[j] = true
			}
		}

		result = append(result, market.NewUnifiedMarket(members, confidences))
	}

	return result
}

// DefaultThreshold is θ from spec.md §4.2.
const DefaultThreshold = 0.85
