package venues

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sawpanic/predictmkt/internal/apperr"
	"github.com/sawpanic/predictmkt/internal/logging"
	"github.com/sawpanic/predictmkt/internal/market"
	"github.com/sawpanic/predictmkt/internal/ratelimit"
)

const (
	maxRetryAttempts  = 3
	overallDeadline   = 15 * time.Second
	defaultPageLimit  = 100
)

// Config names a venue's rate budget and identity. The two current
// venues are the only valid Config values in use; adding a venue
// means adding a new Config + constructor, not a new string literal at
// a call site (spec.md §9, "string-typed venue tags").
type Config struct {
	Venue             market.VenueTag
	RequestsPerMinute int
	DefaultPageLimit  int
}

// Adapter implements the venue adapter contract of spec.md §4.1: paged,
// rate-limited, retrying fetch plus normalization and health reporting.
type Adapter struct {
	cfg     Config
	fetcher Fetcher
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker

	mu     sync.Mutex
	health HealthStatus
	stats  Stats
}

// NewAdapter builds an Adapter for the given venue config and raw
// fetcher.
func NewAdapter(cfg Config, fetcher Fetcher) *Adapter {
	if cfg.DefaultPageLimit == 0 {
		cfg.DefaultPageLimit = defaultPageLimit
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(cfg.Venue),
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Adapter{
		cfg:     cfg,
		fetcher: fetcher,
		limiter: ratelimit.New(cfg.RequestsPerMinute),
		breaker: breaker,
		health:  HealthStatus{Status: HealthHealthy},
	}
}

// FetchMarkets pulls markets from this venue, normalizing each page and
// stopping at the first short page or MaxPages, whichever comes first.
func (a *Adapter) FetchMarkets(ctx context.Context, opts Options) ([]market.NormalizedMarket, error) {
	if opts.Limit == 0 {
		opts.Limit = a.cfg.DefaultPageLimit
	}
	if opts.Status == "" {
		opts.Status = StatusOpen
	}
	maxPages := opts.MaxPages
	if maxPages == 0 {
		maxPages = 1
	}

	var result []market.NormalizedMarket

	for page := 0; page < maxPages; page++ {
		raws, err := a.fetchPageWithResilience(ctx, opts, page)
		if err != nil {
			return result, err
		}

		for _, raw := range raws {
			m, ok := a.Normalize(raw)
			if !ok {
				continue
			}
			result = append(result, *m)
		}

		if len(raws) < opts.Limit {
			break
		}
	}

	return result, nil
}

// fetchPageWithResilience enforces the rate limit, retries transient
// failures with 2^attempt backoff, and routes the call through a
// circuit breaker so a persistently-down venue stops being hammered
// every poll tick. Updates health and stats.
func (a *Adapter) fetchPageWithResilience(ctx context.Context, opts Options, page int) ([]RawMarket, error) {
	deadlineCtx, cancel := context.WithTimeout(ctx, overallDeadline)
	defer cancel()

	if err := a.limiter.Wait(deadlineCtx); err != nil {
		return nil, &apperr.FetchError{Venue: string(a.cfg.Venue), Err: err}
	}

	a.mu.Lock()
	a.health.LastAttempt = time.Now().UTC()
	a.stats.TotalRequests++
	a.mu.Unlock()

	var raws []RawMarket
	start := time.Now()

	_, err := a.breaker.Execute(func() (interface{}, error) {
		return nil, withRetry(deadlineCtx, maxRetryAttempts, func(ctx context.Context) error {
			r, ferr := a.fetcher.FetchPage(ctx, opts, page)
			if ferr != nil {
				return ferr
			}
			raws = r
			return nil
		})
	})

	a.recordOutcome(start, err)

	if err != nil {
		return nil, &apperr.FetchError{Venue: string(a.cfg.Venue), Err: err}
	}
	return raws, nil
}

func (a *Adapter) recordOutcome(start time.Time, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	latency := time.Since(start)
	if a.stats.AvgLatency == 0 {
		a.stats.AvgLatency = latency
	} else {
		a.stats.AvgLatency = (a.stats.AvgLatency + latency) / 2
	}
	a.stats.LastFetch = time.Now().UTC()

	if err != nil {
		a.stats.FailCount++
		a.health.Status = HealthDegraded
		a.health.LastError = err.Error()
		return
	}

	a.stats.SuccessCount++
	a.health.Status = HealthHealthy
	a.health.LastSuccess = time.Now().UTC()
	a.health.LastError = ""
}

// Normalize converts a raw venue record into a NormalizedMarket. Returns
// ok=false (a NormalizationSkip) when the record lacks a question or
// carries no prices at all.
func (a *Adapter) Normalize(raw RawMarket) (*market.NormalizedMarket, bool) {
	log := logging.For("venues." + string(a.cfg.Venue))

	if raw.Question == "" {
		log.Debug().Err(&apperr.NormalizationSkip{Reason: "missing question"}).Str("raw_id", raw.ID).Msg("normalization skipped")
		return nil, false
	}
	if !HasAnyPrice(raw.Outcomes) {
		log.Debug().Err(&apperr.NormalizationSkip{Reason: "no outcome carries a price"}).Str("raw_id", raw.ID).Msg("normalization skipped")
		return nil, false
	}

	outcomes := make([]market.Outcome, 0, len(raw.Outcomes))
	for _, o := range raw.Outcomes {
		outcomes = append(outcomes, market.Outcome{
			Name:  o.Name,
			Price: market.ClampPrice(o.Price),
			Rank:  o.Rank,
			Image: o.Image,
		})
	}

	m := &market.NormalizedMarket{
		ID:         raw.ID,
		Venue:      a.cfg.Venue,
		Question:   raw.Question,
		Outcomes:   outcomes,
		Volume24h:  maxFloat(raw.Volume24h, 0),
		Liquidity:  maxFloat(raw.Liquidity, 0),
		Spread:     market.ComputeSpread(outcomes),
		EndDate:    raw.EndDate,
		Category:   classifyCategory(raw.CategoryHint, raw.Question),
		Closed:     raw.Closed,
		Resolved:   raw.Resolved,
		LastUpdate: time.Now().UTC(),
	}
	return m, true
}

func maxFloat(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return v
}

// HasAnyPrice reports whether at least one raw outcome carries a
// non-zero price entry (venue sent an empty/placeholder book otherwise).
func HasAnyPrice(outcomes []RawOutcome) bool {
	for _, o := range outcomes {
		if o.Price > 0 {
			return true
		}
	}
	return false
}

// Health returns the adapter's current health snapshot.
func (a *Adapter) Health() HealthStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.health
}

// Stats returns the adapter's current request bookkeeping.
func (a *Adapter) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Venue returns the venue tag this adapter serves.
func (a *Adapter) Venue() market.VenueTag {
	return a.cfg.Venue
}
