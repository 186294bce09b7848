// Package venues implements the per-venue adapter contract of spec.md
// §4.1: rate-limited, retrying, paged fetch of raw venue records,
// normalization into market.NormalizedMarket, and health reporting. The
// raw wire transport (a specific venue's JSON shape and HTTP endpoints)
// is abstracted behind Fetcher — an external collaborator per spec.md
// §1 — so the adapter's own contract (rate limit, retry, paging,
// normalization, health) is fully exercised independent of any one
// venue's actual API.
package venues

import (
	"time"

	"github.com/sawpanic/predictmkt/internal/market"
)

// Status recognized by FetchMarkets' options.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
	StatusAny    Status = "any"
)

// Options controls a fetch_markets call.
type Options struct {
	Status   Status
	Limit    int
	MaxPages int
}

// RawOutcome is one outcome as the venue reports it, before price
// clamping.
type RawOutcome struct {
	Name  string
	Price float64
	Rank  int
	Image string
}

// RawMarket is a venue's raw record, before normalization. Fields are
// pointers/zero-valued where the venue may omit them.
type RawMarket struct {
	ID           string
	Question     string
	Outcomes     []RawOutcome
	Volume24h    float64
	Liquidity    float64
	EndDate      *time.Time
	CategoryHint string
	Closed       bool
	Resolved     bool
}

// HealthState is healthy or degraded (degraded persists until the next
// success).
type HealthState string

const (
	HealthHealthy  HealthState = "healthy"
	HealthDegraded HealthState = "degraded"
)

// HealthStatus is the per-call health record spec.md §4.1 requires.
type HealthStatus struct {
	Status      HealthState
	LastAttempt time.Time
	LastSuccess time.Time
	LastError   string
}

// Stats tracks the adapter's own request bookkeeping, following the
// teacher's lastSeen/errorCount/avgLatency pattern. /api/polling-stats
// does not read it; that endpoint reports the Poller's per-venue Stats.
type Stats struct {
	TotalRequests int64
	SuccessCount  int64
	FailCount     int64
	AvgLatency    time.Duration
	LastFetch     time.Time
}
