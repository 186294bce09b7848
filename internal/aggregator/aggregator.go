// Package aggregator drives parallel venue ingest, matching, and the
// per-cluster enrichment (combined volume, best price, liquidity
// score, arbitrage, routing) described by spec.md §4.4. It is the only
// component that knows about both the venue adapters and the Cache;
// the Poller depends on it only through the narrow Enricher interface
// so there is no import cycle back from this package to the poller.
package aggregator

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/predictmkt/internal/apperr"
	"github.com/sawpanic/predictmkt/internal/arbitrage"
	"github.com/sawpanic/predictmkt/internal/cache"
	"github.com/sawpanic/predictmkt/internal/logging"
	"github.com/sawpanic/predictmkt/internal/market"
	"github.com/sawpanic/predictmkt/internal/matching"
	"github.com/sawpanic/predictmkt/internal/venues"
)

// VenueFetcher is the subset of venues.Adapter the Aggregator depends
// on, so tests can fake a venue without spinning up a real adapter.
type VenueFetcher interface {
	Venue() market.VenueTag
	FetchMarkets(ctx context.Context, opts venues.Options) ([]market.NormalizedMarket, error)
}

// PlatformFetchResult is the outcome of one venue's fetch within a
// fetch_all_platforms call: either markets or an error, never both.
type PlatformFetchResult struct {
	Venue   market.VenueTag
	Markets []market.NormalizedMarket
	Err     error
}

// FetchAllResult is fetch_all_platforms' return value.
type FetchAllResult struct {
	ByVenue    map[market.VenueTag][]market.NormalizedMarket
	Total      int
	DurationMS int64
}

// Aggregator orchestrates the venue adapters, the Matching Engine, and
// the Cache.
type Aggregator struct {
	venues          []VenueFetcher
	cache           *cache.Cache
	arbitrageConfig arbitrage.Config
	clusterThreshold float64
	log             zerolog.Logger
}

// New builds an Aggregator over the given venue fetchers.
func New(cache *cache.Cache, arbitrageCfg arbitrage.Config, fetchers ...VenueFetcher) *Aggregator {
	return &Aggregator{
		venues:           fetchers,
		cache:            cache,
		arbitrageConfig:  arbitrageCfg,
		clusterThreshold: matching.DefaultThreshold,
		log:              logging.For("aggregator"),
	}
}

// FetchAllPlatforms launches one fetch per venue concurrently and
// joins all of them, Promise.allSettled-style: every venue's outcome
// (value or error) is captured, and one venue's failure never aborts
// the others. Only when every venue fails does it return AllVenuesDown.
func (a *Aggregator) FetchAllPlatforms(ctx context.Context, opts venues.Options) (FetchAllResult, error) {
	start := time.Now()
	results := make([]PlatformFetchResult, len(a.venues))

	g, gctx := errgroup.WithContext(ctx)
	for i, v := range a.venues {
		i, v := i, v
		g.Go(func() error {
			markets, err := v.FetchMarkets(gctx, opts)
			results[i] = PlatformFetchResult{Venue: v.Venue(), Markets: markets, Err: err}
			return nil // never propagate: a single venue's failure must not cancel siblings
		})
	}
	_ = g.Wait() // errors are captured per-result above, not returned here

	out := FetchAllResult{ByVenue: make(map[market.VenueTag][]market.NormalizedMarket)}
	failures := map[string]error{}
	for _, r := range results {
		out.ByVenue[r.Venue] = r.Markets
		out.Total += len(r.Markets)
		if r.Err != nil {
			failures[string(r.Venue)] = r.Err
			a.log.Warn().Str("venue", string(r.Venue)).Err(r.Err).Msg("venue fetch failed")
		}
	}
	out.DurationMS = time.Since(start).Milliseconds()

	if len(failures) == len(a.venues) && len(a.venues) > 0 {
		return out, &apperr.AllVenuesDown{Errors: failures}
	}
	return out, nil
}

// Combine concatenates per-venue sequences, runs the Matching Engine,
// and enriches each resulting cluster.
func (a *Aggregator) Combine(byVenue map[market.VenueTag][]market.NormalizedMarket) []market.UnifiedMarket {
	var flat []market.NormalizedMarket
	for _, ms := range byVenue {
		flat = append(flat, ms...)
	}

	clusters := matching.Cluster(flat, a.clusterThreshold)
	for i := range clusters {
		clusters[i] = a.Enhance(clusters[i])
	}
	return clusters
}

// Enhance is the pure, idempotent enrichment function: combined
// volume, best price, liquidity score, arbitrage, routing. It is safe
// to call repeatedly on its own output (enhance(enhance(u)) == enhance(u)).
func (a *Aggregator) Enhance(u market.UnifiedMarket) market.UnifiedMarket {
	u.CombinedVolume = combinedVolume(u)
	u.BestPrice = bestPrice(u)
	u.LiquidityScore = liquidityScore(u)
	u.Arbitrage = arbitrage.Detect(u, a.arbitrageConfig)
	u.RoutingRecommendations = routingRecommendations(u)
	u.CriteriaMismatch = criteriaMismatch(u)
	return u
}

// GetUnifiedMarkets is cache-first: when the unified region holds any
// clusters they are filtered by cat and returned directly; an empty
// region triggers a fresh fetch+combine pass, which is cached before
// returning.
func (a *Aggregator) GetUnifiedMarkets(ctx context.Context, cat string) ([]market.UnifiedMarket, error) {
	all, err := a.allUnifiedCached(ctx)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(cat, "all") || cat == "" {
		return all, nil
	}
	filtered := make([]market.UnifiedMarket, 0, len(all))
	for _, u := range all {
		if strings.EqualFold(string(u.Category), cat) {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

// allUnifiedCached returns the cached "all" unified view, refreshing it
// via a fetch+combine pass when the cache has nothing.
func (a *Aggregator) allUnifiedCached(ctx context.Context) ([]market.UnifiedMarket, error) {
	if cached := a.cache.AllUnified(); len(cached) > 0 {
		return cached, nil
	}
	return a.refresh(ctx)
}

func (a *Aggregator) refresh(ctx context.Context) ([]market.UnifiedMarket, error) {
	fetched, err := a.FetchAllPlatforms(ctx, venues.Options{Status: venues.StatusOpen})
	if err != nil {
		if _, down := err.(*apperr.AllVenuesDown); down {
			return nil, err
		}
	}
	clusters := a.Combine(fetched.ByVenue)
	for _, u := range clusters {
		a.cache.SetUnified(u)
	}
	return clusters, nil
}

// GetUnifiedMarket looks up a single cluster by id, refreshing the
// "all" view once on a miss before giving up with NotFound.
func (a *Aggregator) GetUnifiedMarket(ctx context.Context, unifiedID string) (market.UnifiedMarket, error) {
	if u, ok := a.cache.GetUnified(unifiedID); ok {
		return u, nil
	}
	if _, err := a.refresh(ctx); err != nil {
		return market.UnifiedMarket{}, err
	}
	if u, ok := a.cache.GetUnified(unifiedID); ok {
		return u, nil
	}
	return market.UnifiedMarket{}, &apperr.NotFound{ID: unifiedID}
}

// FindArbitrageOpportunities enumerates cached unified markets and
// returns the ones with a live opportunity, sorted by profit descending.
func (a *Aggregator) FindArbitrageOpportunities() []market.UnifiedMarket {
	all := a.cache.AllUnified()
	out := make([]market.UnifiedMarket, 0, len(all))
	for _, u := range all {
		if u.Arbitrage != nil && u.Arbitrage.Exists {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Arbitrage.ProfitPct > out[j].Arbitrage.ProfitPct
	})
	return out
}

func combinedVolume(u market.UnifiedMarket) float64 {
	var total float64
	for _, m := range u.Members {
		total += m.Volume24h
	}
	return total
}

func bestPrice(u market.UnifiedMarket) market.BestPrice {
	var best market.BestPrice
	for _, m := range u.Members {
		yes, ok := m.Outcome("yes")
		if ok && yes.Price > best.Yes.Price {
			best.Yes = market.PriceQuote{Venue: m.Venue, Price: yes.Price}
		}
		no, ok := m.Outcome("no")
		if ok && no.Price > best.No.Price {
			best.No = market.PriceQuote{Venue: m.Venue, Price: no.Price}
		}
	}
	return best
}

func criteriaMismatch(u market.UnifiedMarket) bool {
	var dates []time.Time
	for _, m := range u.Members {
		if m.EndDate != nil {
			dates = append(dates, *m.EndDate)
		}
	}
	if len(dates) < 2 {
		return false
	}
	min, max := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return max.Sub(min) > 7*24*time.Hour
}

func (a *Aggregator) HealthSnapshot() map[market.VenueTag]venues.HealthStatus {
	return a.cache.AllHealth()
}

func (a *Aggregator) Cache() *cache.Cache {
	return a.cache
}
