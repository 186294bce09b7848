package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/predictmkt/internal/apperr"
	"github.com/sawpanic/predictmkt/internal/arbitrage"
	"github.com/sawpanic/predictmkt/internal/cache"
	"github.com/sawpanic/predictmkt/internal/market"
	"github.com/sawpanic/predictmkt/internal/venues"
)

type fakeVenue struct {
	venue   market.VenueTag
	markets []market.NormalizedMarket
	err     error
}

func (f fakeVenue) Venue() market.VenueTag { return f.venue }

func (f fakeVenue) FetchMarkets(ctx context.Context, opts venues.Options) ([]market.NormalizedMarket, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.markets, nil
}

func trumpA() market.NormalizedMarket {
	end := time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC)
	return market.NormalizedMarket{
		ID: "a1", Venue: market.VenueA,
		Question:  "Will Donald Trump win the 2024 US Presidential Election?",
		Outcomes:  []market.Outcome{{Name: "Yes", Price: 0.52}, {Name: "No", Price: 0.48}},
		Volume24h: 1_500_000,
		EndDate:   &end,
	}
}

func trumpB() market.NormalizedMarket {
	end := time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC)
	return market.NormalizedMarket{
		ID: "b1", Venue: market.VenueB,
		Question:  "Will Trump win 2024 Presidential Election?",
		Outcomes:  []market.Outcome{{Name: "Yes", Price: 0.53}, {Name: "No", Price: 0.47}},
		Volume24h: 800_000,
		EndDate:   &end,
	}
}

func TestFetchAllPlatformsPartialFailure(t *testing.T) {
	a := fakeVenue{venue: market.VenueA, markets: []market.NormalizedMarket{trumpA(), {ID: "a2", Venue: market.VenueA}}}
	b := fakeVenue{venue: market.VenueB, err: errors.New("boom")}

	agg := New(cache.New(), arbitrage.DefaultConfig(), a, b)
	defer agg.Cache().Close()

	result, err := agg.FetchAllPlatforms(context.Background(), venues.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Len(t, result.ByVenue[market.VenueB], 0)
}

func TestFetchAllPlatformsAllDown(t *testing.T) {
	a := fakeVenue{venue: market.VenueA, err: errors.New("down")}
	b := fakeVenue{venue: market.VenueB, err: errors.New("down")}

	agg := New(cache.New(), arbitrage.DefaultConfig(), a, b)
	defer agg.Cache().Close()

	_, err := agg.FetchAllPlatforms(context.Background(), venues.Options{})
	require.Error(t, err)
	var down *apperr.AllVenuesDown
	assert.ErrorAs(t, err, &down)
}

func TestCombineS1ExactMatchClustering(t *testing.T) {
	agg := New(cache.New(), arbitrage.DefaultConfig())
	defer agg.Cache().Close()

	clusters := agg.Combine(map[market.VenueTag][]market.NormalizedMarket{
		market.VenueA: {trumpA()},
		market.VenueB: {trumpB()},
	})

	require.Len(t, clusters, 1)
	u := clusters[0]
	assert.Len(t, u.Members, 2)
	assert.GreaterOrEqual(t, u.MatchConfidence, 0.85)
	assert.InDelta(t, 2_300_000, u.CombinedVolume, 1e-6)
}

func TestEnhanceIsIdempotent(t *testing.T) {
	agg := New(cache.New(), arbitrage.DefaultConfig())
	defer agg.Cache().Close()

	clusters := agg.Combine(map[market.VenueTag][]market.NormalizedMarket{
		market.VenueA: {trumpA()},
		market.VenueB: {trumpB()},
	})
	require.Len(t, clusters, 1)

	once := agg.Enhance(clusters[0])
	twice := agg.Enhance(once)
	assert.Equal(t, once, twice)
}

func TestLiquidityScoreInRange(t *testing.T) {
	agg := New(cache.New(), arbitrage.DefaultConfig())
	defer agg.Cache().Close()

	clusters := agg.Combine(map[market.VenueTag][]market.NormalizedMarket{
		market.VenueA: {trumpA()},
		market.VenueB: {trumpB()},
	})
	require.Len(t, clusters, 1)
	assert.GreaterOrEqual(t, clusters[0].LiquidityScore, 1)
	assert.LessOrEqual(t, clusters[0].LiquidityScore, 5)
}

func TestRoutingRecommendationInsufficientLiquidity(t *testing.T) {
	thin := trumpA()
	thin.Liquidity = 10
	agg := New(cache.New(), arbitrage.DefaultConfig())
	defer agg.Cache().Close()

	u := agg.Enhance(market.UnifiedMarket{
		Members: map[market.VenueTag]market.NormalizedMarket{market.VenueA: thin},
	})
	require.NotNil(t, u.RoutingRecommendations.BuyYes)
	assert.Equal(t, market.VenueNone, u.RoutingRecommendations.BuyYes.Platform)
}

func TestFindArbitrageOpportunitiesExcludesBelowThreshold(t *testing.T) {
	c := cache.New()
	defer c.Close()
	agg := New(c, arbitrage.DefaultConfig())

	lowProfit := agg.Enhance(market.UnifiedMarket{
		UnifiedID: "low",
		Members: map[market.VenueTag]market.NormalizedMarket{
			market.VenueA: {Venue: market.VenueA, Outcomes: []market.Outcome{{Name: "Yes", Price: 0.48}, {Name: "No", Price: 0.52}}},
			market.VenueB: {Venue: market.VenueB, Outcomes: []market.Outcome{{Name: "Yes", Price: 0.49}, {Name: "No", Price: 0.50}}},
		},
	})
	highProfit := agg.Enhance(market.UnifiedMarket{
		UnifiedID: "high",
		Members: map[market.VenueTag]market.NormalizedMarket{
			market.VenueA: {Venue: market.VenueA, Outcomes: []market.Outcome{{Name: "Yes", Price: 0.40}, {Name: "No", Price: 0.60}}},
			market.VenueB: {Venue: market.VenueB, Outcomes: []market.Outcome{{Name: "Yes", Price: 0.45}, {Name: "No", Price: 0.50}}},
		},
	})

	c.SetUnified(lowProfit)
	c.SetUnified(highProfit)

	opportunities := agg.FindArbitrageOpportunities()
	require.Len(t, opportunities, 1)
	assert.Equal(t, "high", opportunities[0].UnifiedID)
}
