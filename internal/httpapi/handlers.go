package httpapi

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/mux"

	"github.com/sawpanic/predictmkt/internal/aggregator"
	"github.com/sawpanic/predictmkt/internal/apperr"
	"github.com/sawpanic/predictmkt/internal/market"
	"github.com/sawpanic/predictmkt/internal/poller"
)

var categoryPattern = regexp.MustCompile(`^[A-Za-z]+$`)

type handlers struct {
	agg     *aggregator.Aggregator
	pollers *poller.Manager
}

type unifiedMarketsResponse struct {
	envelope
	Category             string                  `json:"category"`
	Count                int                     `json:"count"`
	Markets              []market.UnifiedMarket  `json:"markets"`
	PlatformDistribution platformDistribution    `json:"platform_distribution"`
}

type platformDistribution struct {
	VenueA int `json:"venue_a"`
	VenueB int `json:"venue_b"`
	Both   int `json:"both"`
}

func (h *handlers) UnifiedMarkets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cat := mux.Vars(r)["category"]

	if cat != "all" && !categoryPattern.MatchString(cat) {
		writeError(w, http.StatusBadRequest, "malformed_category", "category must be alphabetic or 'all'")
		return
	}

	markets, err := h.agg.GetUnifiedMarkets(r.Context(), cat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "aggregation_failed", err.Error())
		return
	}
	if markets == nil {
		markets = []market.UnifiedMarket{}
	}

	resp := unifiedMarketsResponse{
		envelope:              newEnvelope(start),
		Category:              cat,
		Count:                 len(markets),
		Markets:               markets,
		PlatformDistribution:  distributionOf(markets),
	}
	writeJSON(w, http.StatusOK, resp)
}

func distributionOf(markets []market.UnifiedMarket) platformDistribution {
	var d platformDistribution
	for _, u := range markets {
		_, hasA := u.Members[market.VenueA]
		_, hasB := u.Members[market.VenueB]
		switch {
		case hasA && hasB:
			d.Both++
		case hasA:
			d.VenueA++
		case hasB:
			d.VenueB++
		}
	}
	return d
}

type unifiedMarketResponse struct {
	envelope
	Market market.UnifiedMarket `json:"market"`
}

func (h *handlers) UnifiedMarket(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := mux.Vars(r)["unified_id"]

	u, err := h.agg.GetUnifiedMarket(r.Context(), id)
	if err != nil {
		if apperr.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "aggregation_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, unifiedMarketResponse{envelope: newEnvelope(start), Market: u})
}

type arbitrageResponse struct {
	envelope
	Count         int                     `json:"count"`
	Opportunities []market.UnifiedMarket  `json:"opportunities"`
}

func (h *handlers) ArbitrageOpportunities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	opportunities := h.agg.FindArbitrageOpportunities()
	if opportunities == nil {
		opportunities = []market.UnifiedMarket{}
	}
	writeJSON(w, http.StatusOK, arbitrageResponse{
		envelope:      newEnvelope(start),
		Count:         len(opportunities),
		Opportunities: opportunities,
	})
}

type platformHealthEntry struct {
	Status      string    `json:"status"`
	LastSuccess time.Time `json:"last_success"`
	LastError   string    `json:"last_error,omitempty"`
	LastAttempt time.Time `json:"last_attempt"`
}

type platformHealthResponse struct {
	envelope
	Platforms map[market.VenueTag]platformHealthEntry `json:"platforms"`
}

func (h *handlers) PlatformHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snapshot := h.agg.HealthSnapshot()

	platforms := make(map[market.VenueTag]platformHealthEntry, len(snapshot))
	for venue, status := range snapshot {
		platforms[venue] = platformHealthEntry{
			Status:      string(status.Status),
			LastSuccess: status.LastSuccess,
			LastError:   status.LastError,
			LastAttempt: status.LastAttempt,
		}
	}
	writeJSON(w, http.StatusOK, platformHealthResponse{envelope: newEnvelope(start), Platforms: platforms})
}

type pollingStatsEntry struct {
	Total       int64     `json:"total"`
	Success     int64     `json:"success"`
	Fail        int64     `json:"fail"`
	SuccessRate float64   `json:"success_rate"`
	LastFetch   time.Time `json:"last_fetch"`
	IsStale     bool      `json:"is_stale"`
	LastError   string    `json:"last_error,omitempty"`
}

type pollingStatsResponse struct {
	envelope
	Venues map[market.VenueTag]pollingStatsEntry `json:"venues"`
}

func (h *handlers) PollingStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats := h.pollers.PollingStats()
	stale := h.pollers.StalenessStatus()

	venues := make(map[market.VenueTag]pollingStatsEntry, len(stats))
	for v, s := range stats {
		venues[v] = pollingStatsEntry{
			Total:       s.TotalRequests,
			Success:     s.SuccessCount,
			Fail:        s.FailCount,
			SuccessRate: s.SuccessRate(),
			LastFetch:   s.LastFetch,
			IsStale:     stale[v],
			LastError:   s.LastError,
		}
	}
	writeJSON(w, http.StatusOK, pollingStatsResponse{envelope: newEnvelope(start), Venues: venues})
}

type stalenessEntry struct {
	IsStale               bool      `json:"is_stale"`
	LastFetch             time.Time `json:"last_fetch"`
	TimeSinceLastFetchMS  int64     `json:"time_since_last_fetch_ms"`
}

type stalenessResponse struct {
	envelope
	Venues map[market.VenueTag]stalenessEntry `json:"venues"`
}

func (h *handlers) StalenessStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stale := h.pollers.StalenessStatus()
	stats := h.pollers.PollingStats()

	venues := make(map[market.VenueTag]stalenessEntry, len(stale))
	for v, isStale := range stale {
		lastFetch := stats[v].LastFetch
		var sinceMS int64
		if !lastFetch.IsZero() {
			sinceMS = time.Since(lastFetch).Milliseconds()
		}
		venues[v] = stalenessEntry{IsStale: isStale, LastFetch: lastFetch, TimeSinceLastFetchMS: sinceMS}
	}
	writeJSON(w, http.StatusOK, stalenessResponse{envelope: newEnvelope(start), Venues: venues})
}

func (h *handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "endpoint_not_found", "the requested endpoint does not exist")
}
