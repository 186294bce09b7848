// Package poller implements the per-venue timed refresh loop of
// spec.md §4.6: on a fixed interval it fetches a venue, diffs the
// result against whatever's cached, and patches affected clusters in
// place without re-running the Matching Engine. It depends on the
// Aggregator and Cache only through the narrow Enricher and
// CacheReadWriter interfaces below, so neither concrete package needs
// to know the Poller exists (spec.md §9, breaking the Poller →
// Aggregator → Cache cycle).
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/predictmkt/internal/logging"
	"github.com/sawpanic/predictmkt/internal/market"
	"github.com/sawpanic/predictmkt/internal/venues"
)

const (
	VenueAInterval = 5 * time.Second
	VenueBInterval = 10 * time.Second

	stalenessThreshold = 60 * time.Second
	priceDeltaEpsilon  = 1e-4
)

// VenueFetcher is the subset of venues.Adapter a Poller needs.
type VenueFetcher interface {
	Venue() market.VenueTag
	FetchMarkets(ctx context.Context, opts venues.Options) ([]market.NormalizedMarket, error)
}

// Enricher re-runs the pure per-cluster enrichment after a member swap.
// Satisfied by *aggregator.Aggregator.
type Enricher interface {
	Enhance(market.UnifiedMarket) market.UnifiedMarket
}

// CacheReadWriter is the narrow slice of Cache a Poller touches.
type CacheReadWriter interface {
	AllUnified() []market.UnifiedMarket
	SetUnified(market.UnifiedMarket)
	RecordHealthAttempt(venue market.VenueTag, at time.Time)
	RecordHealthSuccess(venue market.VenueTag, at time.Time)
	RecordHealthFailure(venue market.VenueTag, at time.Time, errMsg string)
}

// Stats is the per-venue polling bookkeeping exposed at
// /api/polling-stats.
type Stats struct {
	TotalRequests int64
	SuccessCount  int64
	FailCount     int64
	LastFetch     time.Time
	LastError     string
}

func (s Stats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.TotalRequests)
}

// Poller runs one venue's timed refresh loop.
type Poller struct {
	venue    VenueFetcher
	interval time.Duration
	enricher Enricher
	cache    CacheReadWriter
	log      zerolog.Logger

	mu    sync.Mutex
	stats Stats

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Poller for one venue. Call Start to begin ticking.
func New(fetcher VenueFetcher, interval time.Duration, enricher Enricher, cache CacheReadWriter) *Poller {
	return &Poller{
		venue:    fetcher,
		interval: interval,
		enricher: enricher,
		cache:    cache,
		log:      logging.For("poller." + string(fetcher.Venue())),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the timer loop in a background goroutine. ctx is passed
// to every tick's fetch, and cancelling it also ends the loop; Stop
// ends it as well.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.tick(ctx)
			}
		}
	}()
}

// Stop cancels the timer loop. In-flight ticks are allowed to finish;
// no new tick is scheduled. Idempotent.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

func (p *Poller) tick(ctx context.Context) {
	venue := p.venue.Venue()
	now := time.Now().UTC()

	p.cache.RecordHealthAttempt(venue, now)
	p.mu.Lock()
	p.stats.TotalRequests++
	p.mu.Unlock()

	fetched, err := p.venue.FetchMarkets(ctx, venues.Options{Status: venues.StatusOpen, MaxPages: 2})
	if err != nil {
		p.cache.RecordHealthFailure(venue, now, err.Error())
		p.mu.Lock()
		p.stats.FailCount++
		p.stats.LastError = err.Error()
		p.mu.Unlock()
		p.log.Warn().Err(err).Msg("poll tick fetch failed")
		return
	}

	p.cache.RecordHealthSuccess(venue, now)
	p.mu.Lock()
	p.stats.SuccessCount++
	p.stats.LastFetch = now
	p.stats.LastError = ""
	p.mu.Unlock()

	byID := make(map[string]market.NormalizedMarket, len(fetched))
	for _, m := range fetched {
		byID[m.ID] = m
	}

	p.patchClusters(venue, byID)
}

// patchClusters implements step 2 of spec.md §4.6: for every cached
// cluster whose members include this venue, swap in the freshly
// fetched record if it differs, and rerun Enhance. No new clustering
// is performed.
func (p *Poller) patchClusters(venue market.VenueTag, byID map[string]market.NormalizedMarket) {
	for _, u := range p.cache.AllUnified() {
		old, ok := u.Members[venue]
		if !ok {
			continue
		}
		fresh, ok := byID[old.ID]
		if !ok {
			continue // venue no longer reports this market; leave the stale member as-is
		}
		if !marketsDiffer(old, fresh) {
			continue
		}

		patched := u.Members
		members := make(map[market.VenueTag]market.NormalizedMarket, len(patched))
		for k, v := range patched {
			members[k] = v
		}
		members[venue] = fresh
		u.Members = members

		u = p.enricher.Enhance(u)
		p.cache.SetUnified(u)
	}
}

// marketsDiffer reports whether fresh should replace old: any outcome
// price moved by more than priceDeltaEpsilon, or volume changed at all.
func marketsDiffer(old, fresh market.NormalizedMarket) bool {
	if old.Volume24h != fresh.Volume24h {
		return true
	}
	for _, fo := range fresh.Outcomes {
		oo, ok := old.Outcome(fo.Name)
		if !ok {
			return true
		}
		if diff := fo.Price - oo.Price; diff > priceDeltaEpsilon || diff < -priceDeltaEpsilon {
			return true
		}
	}
	return len(fresh.Outcomes) != len(old.Outcomes)
}

// Stats returns the poller's current bookkeeping.
func (p *Poller) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// IsStale reports whether this venue's last successful fetch is older
// than the 60-second staleness threshold. Read-only: it never affects
// polling itself.
func (p *Poller) IsStale() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stats.LastFetch.IsZero() {
		return true
	}
	return time.Since(p.stats.LastFetch) > stalenessThreshold
}

// Venue returns the venue tag this poller drives.
func (p *Poller) Venue() market.VenueTag {
	return p.venue.Venue()
}
