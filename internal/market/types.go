// Package market defines the shared data model: NormalizedMarket (a
// venue's view of a market) and UnifiedMarket (a cross-venue cluster),
// plus the small closed enumerations the spec requires in place of
// string-typed venue tags.
package market

import (
	"sort"
	"time"
)

// VenueTag identifies a market's source venue. It is a closed
// enumeration — the two current venues are the only valid tags, and
// adding a third venue means adding a variant here, not inventing a new
// string at a call site.
type VenueTag string

const (
	VenueA VenueTag = "venue_a"
	VenueB VenueTag = "venue_b"
	// VenueNone marks the absence of a venue, e.g. a routing
	// recommendation with insufficient liquidity on every platform.
	VenueNone VenueTag = "none"
)

// Category is the closed set of coarse market categories.
type Category string

const (
	CategoryPolitics     Category = "Politics"
	CategoryCrypto       Category = "Crypto"
	CategorySports       Category = "Sports"
	CategoryEconomics    Category = "Economics"
	CategoryWorld        Category = "World"
	CategoryCulture      Category = "Culture"
	CategoryGeopolitics  Category = "Geopolitics"
	CategoryOther        Category = "Other"
)

// AllCategories lists every recognized category, in the order keyword
// fallback matching should try them (most specific first, Other last).
var AllCategories = []Category{
	CategoryPolitics, CategoryCrypto, CategorySports, CategoryEconomics,
	CategoryWorld, CategoryCulture, CategoryGeopolitics, CategoryOther,
}

// Outcome is one resolvable answer to a market's question.
type Outcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Rank  int     `json:"rank"`
	Image string  `json:"image,omitempty"` // optional; empty when the venue supplied none
}

// NormalizedMarket is a venue's view of one market, after normalization.
type NormalizedMarket struct {
	ID         string     `json:"id"`
	Venue      VenueTag   `json:"venue"`
	Question   string     `json:"question"`
	Outcomes   []Outcome  `json:"outcomes"`
	Volume24h  float64    `json:"volume_24h"`
	Liquidity  float64    `json:"liquidity"`
	Spread     float64    `json:"spread"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Category   Category   `json:"category"`
	Closed     bool       `json:"closed"`
	Resolved   bool       `json:"resolved"`
	LastUpdate time.Time  `json:"last_update"`
}

// IsBinary reports whether m is a binary Yes/No market (case-insensitive
// outcome-name comparison, per the spec's resolution of the source's
// mixed 'Yes'/'yes'/'YES' casing).
func (m NormalizedMarket) IsBinary() bool {
	if len(m.Outcomes) != 2 {
		return false
	}
	names := map[string]bool{}
	for _, o := range m.Outcomes {
		names[normalizeOutcomeName(o.Name)] = true
	}
	return names["yes"] && names["no"]
}

// Outcome looks up an outcome by name, case-insensitively.
func (m NormalizedMarket) Outcome(name string) (Outcome, bool) {
	target := normalizeOutcomeName(name)
	for _, o := range m.Outcomes {
		if normalizeOutcomeName(o.Name) == target {
			return o, true
		}
	}
	return Outcome{}, false
}

func normalizeOutcomeName(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// PriceQuote names the venue offering a given price on one side of a
// market.
type PriceQuote struct {
	Venue VenueTag `json:"venue"`
	Price float64  `json:"price"`
}

// BestPrice reports the highest-selling price on each side across a
// cluster's members. See spec.md's Open Question on "best price" vs.
// arbitrage's lowest-Yes selection — this is intentionally the
// highest-wins reading.
type BestPrice struct {
	Yes PriceQuote `json:"yes"`
	No  PriceQuote `json:"no"`
}

// Recommendation is a single-venue routing suggestion for one side of
// one outcome, or the "insufficient liquidity" sentinel when no member
// qualifies.
type Recommendation struct {
	Platform VenueTag `json:"platform"`
	Price    float64  `json:"price,omitempty"`
	Reason   string   `json:"reason"`
}

// RoutingRecommendations groups the four buy/sell recommendations
// computed per unified cluster.
type RoutingRecommendations struct {
	BuyYes  *Recommendation `json:"buy_yes"`
	SellYes *Recommendation `json:"sell_yes"`
	BuyNo   *Recommendation `json:"buy_no"`
	SellNo  *Recommendation `json:"sell_no"`
}

// ArbitrageOpportunity is the result of the Arbitrage Detector (§4.3).
type ArbitrageOpportunity struct {
	Exists     bool       `json:"exists"`
	ProfitPct  float64    `json:"profit_pct"`
	TotalCost  float64    `json:"total_cost"`
	YesBuy     PriceQuote `json:"yes_buy"`
	NoSell     PriceQuote `json:"no_sell"`
	DetectedAt time.Time  `json:"detected_at"`
}

// UnifiedMarket is a cluster of one or more NormalizedMarket values, at
// most one per venue.
type UnifiedMarket struct {
	UnifiedID              string                        `json:"unified_id"`
	CanonicalQuestion      string                        `json:"canonical_question"`
	Category               Category                      `json:"category"`
	ResolutionDate         *time.Time                    `json:"resolution_date,omitempty"`
	Members                map[VenueTag]NormalizedMarket `json:"members"`
	MatchConfidence        float64                       `json:"match_confidence"`
	CombinedVolume         float64                       `json:"combined_volume"`
	BestPrice              BestPrice                     `json:"best_price"`
	LiquidityScore         int                           `json:"liquidity_score"`
	Arbitrage              *ArbitrageOpportunity         `json:"arbitrage,omitempty"`
	RoutingRecommendations RoutingRecommendations        `json:"routing_recommendations"`
	CriteriaMismatch       bool                          `json:"criteria_mismatch"`
}

// MemberIDs returns the member NormalizedMarket ids, in sorted order.
func (u UnifiedMarket) MemberIDs() []string {
	ids := make([]string, 0, len(u.Members))
	for _, m := range u.Members {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids
}
