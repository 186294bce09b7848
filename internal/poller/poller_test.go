package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/predictmkt/internal/market"
	"github.com/sawpanic/predictmkt/internal/venues"
)

type fakeFetcher struct {
	venue   market.VenueTag
	mu      sync.Mutex
	markets []market.NormalizedMarket
	err     error
}

func (f *fakeFetcher) Venue() market.VenueTag { return f.venue }

func (f *fakeFetcher) FetchMarkets(ctx context.Context, opts venues.Options) ([]market.NormalizedMarket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.markets, nil
}

func (f *fakeFetcher) setMarkets(m []market.NormalizedMarket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markets = m
}

type fakeEnricher struct {
	calls int32
}

func (e *fakeEnricher) Enhance(u market.UnifiedMarket) market.UnifiedMarket {
	e.calls++
	u.CombinedVolume = 0
	for _, m := range u.Members {
		u.CombinedVolume += m.Volume24h
	}
	return u
}

type fakeCache struct {
	mu      sync.Mutex
	unified map[string]market.UnifiedMarket
}

func newFakeCache() *fakeCache { return &fakeCache{unified: map[string]market.UnifiedMarket{}} }

func (c *fakeCache) AllUnified() []market.UnifiedMarket {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]market.UnifiedMarket, 0, len(c.unified))
	for _, u := range c.unified {
		out = append(out, u)
	}
	return out
}

func (c *fakeCache) SetUnified(u market.UnifiedMarket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unified[u.UnifiedID] = u
}

func (c *fakeCache) RecordHealthAttempt(venue market.VenueTag, at time.Time) {}
func (c *fakeCache) RecordHealthSuccess(venue market.VenueTag, at time.Time) {}
func (c *fakeCache) RecordHealthFailure(venue market.VenueTag, at time.Time, errMsg string) {}

func TestPollerS6PatchesOnPriceChange(t *testing.T) {
	fetcher := &fakeFetcher{venue: market.VenueA, markets: []market.NormalizedMarket{
		{ID: "a1", Venue: market.VenueA, Outcomes: []market.Outcome{{Name: "Yes", Price: 0.51}, {Name: "No", Price: 0.49}}, Volume24h: 100},
	}}
	enricher := &fakeEnricher{}
	c := newFakeCache()
	c.SetUnified(market.UnifiedMarket{
		UnifiedID: "u1",
		Members: map[market.VenueTag]market.NormalizedMarket{
			market.VenueA: {ID: "a1", Venue: market.VenueA, Outcomes: []market.Outcome{{Name: "Yes", Price: 0.50}, {Name: "No", Price: 0.50}}, Volume24h: 100},
		},
	})

	p := New(fetcher, time.Hour, enricher, c)
	p.tick(context.Background())

	updated := c.unified["u1"]
	yes, _ := updated.Members[market.VenueA].Outcome("Yes")
	assert.InDelta(t, 0.51, yes.Price, 1e-9)
	assert.EqualValues(t, 1, enricher.calls)
}

func TestPollerSkipsUnchangedMember(t *testing.T) {
	fetcher := &fakeFetcher{venue: market.VenueA, markets: []market.NormalizedMarket{
		{ID: "a1", Venue: market.VenueA, Outcomes: []market.Outcome{{Name: "Yes", Price: 0.500001}, {Name: "No", Price: 0.499999}}, Volume24h: 100},
	}}
	enricher := &fakeEnricher{}
	c := newFakeCache()
	c.SetUnified(market.UnifiedMarket{
		UnifiedID: "u1",
		Members: map[market.VenueTag]market.NormalizedMarket{
			market.VenueA: {ID: "a1", Venue: market.VenueA, Outcomes: []market.Outcome{{Name: "Yes", Price: 0.50}, {Name: "No", Price: 0.50}}, Volume24h: 100},
		},
	})

	p := New(fetcher, time.Hour, enricher, c)
	p.tick(context.Background())

	assert.EqualValues(t, 0, enricher.calls, "sub-epsilon price delta should not trigger a patch")
}

func TestPollerS7StalenessAfterNoFetch(t *testing.T) {
	fetcher := &fakeFetcher{venue: market.VenueA}
	p := New(fetcher, time.Hour, &fakeEnricher{}, newFakeCache())
	assert.True(t, p.IsStale(), "a poller with no successful fetch yet is stale")
}

func TestPollerRecordsFailureStatsOnFetchError(t *testing.T) {
	fetcher := &fakeFetcher{venue: market.VenueA, err: errors.New("boom")}
	p := New(fetcher, time.Hour, &fakeEnricher{}, newFakeCache())
	p.tick(context.Background())

	stats := p.Stats()
	assert.EqualValues(t, 1, stats.FailCount)
	assert.NotEmpty(t, stats.LastError)
}

func TestPollerStopIsIdempotent(t *testing.T) {
	fetcher := &fakeFetcher{venue: market.VenueA}
	p := New(fetcher, 10*time.Millisecond, &fakeEnricher{}, newFakeCache())
	p.Start(context.Background())
	p.Stop()
	require.NotPanics(t, func() { p.Stop() })
}
