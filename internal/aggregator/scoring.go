package aggregator

import (
	"fmt"
	"math"

	"github.com/sawpanic/predictmkt/internal/market"
)

const (
	liquidityVolumeNorm   = 1_000_000.0
	liquiditySpreadFactor = 10.0
	defaultSpread         = 0.10

	routingMinLiquidity  = 1_000.0
	executionSpreadNorm  = 0.20
	executionLiquidityNorm = 100_000.0
	tightSpreadThreshold = 0.05
)

// liquidityScore computes the 1..5 star rating of spec.md §4.4.
func liquidityScore(u market.UnifiedMarket) int {
	var totalVolume float64
	var spreadSum float64
	var spreadCount int
	for _, m := range u.Members {
		totalVolume += m.Volume24h
		if m.Spread > 0 {
			spreadSum += m.Spread
			spreadCount++
		}
	}

	meanSpread := defaultSpread
	if spreadCount > 0 {
		meanSpread = spreadSum / float64(spreadCount)
	}

	vHat := math.Min(totalVolume/liquidityVolumeNorm, 1)
	sHat := math.Min(1/(meanSpread*liquiditySpreadFactor), 1)
	r := 0.4*vHat + 0.6*sHat

	score := int(math.Round(4*r + 1))
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	return score
}

// executionScore computes X(member, side, outcome) for routing.
func executionScore(m market.NormalizedMarket, outcome market.Outcome, buy bool) float64 {
	var priceQuality float64
	if buy {
		priceQuality = 1 - outcome.Price
	} else {
		priceQuality = outcome.Price
	}

	spreadQuality := math.Max(0, 1-m.Spread/executionSpreadNorm)
	liquidityQuality := math.Min(1, m.Liquidity/executionLiquidityNorm)

	return 0.5*priceQuality + 0.3*spreadQuality + 0.2*liquidityQuality
}

// routingRecommendations computes the four buy/sell recommendations for
// a unified cluster.
func routingRecommendations(u market.UnifiedMarket) market.RoutingRecommendations {
	return market.RoutingRecommendations{
		BuyYes:  recommend(u, "yes", true),
		SellYes: recommend(u, "yes", false),
		BuyNo:   recommend(u, "no", true),
		SellNo:  recommend(u, "no", false),
	}
}

func recommend(u market.UnifiedMarket, outcomeName string, buy bool) *market.Recommendation {
	var bestVenue market.VenueTag
	var bestOutcome market.Outcome
	var bestScore float64
	found := false

	for _, m := range u.Members {
		if m.Liquidity < routingMinLiquidity {
			continue
		}
		o, ok := m.Outcome(outcomeName)
		if !ok {
			continue
		}
		score := executionScore(m, o, buy)
		if !found || score > bestScore {
			bestVenue, bestOutcome, bestScore, found = m.Venue, o, score, true
		}
	}

	if !found {
		return &market.Recommendation{
			Platform: market.VenueNone,
			Reason:   "Insufficient liquidity on all platforms",
		}
	}

	action := "Buy"
	if !buy {
		action = "Sell"
	}
	m := u.Members[bestVenue]
	tight := ""
	if m.Spread < tightSpreadThreshold {
		tight = ", tight spread"
	}
	reason := fmt.Sprintf("%s %s at %.2f on %s%s", action, outcomeName, bestOutcome.Price, bestVenue, tight)

	return &market.Recommendation{
		Platform: bestVenue,
		Price:    bestOutcome.Price,
		Reason:   reason,
	}
}
