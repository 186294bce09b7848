// Package arbitrage finds riskless cross-venue Yes/No price pairs on a
// unified market cluster and produces human-readable trade instructions.
package arbitrage

import (
	"sort"
	"time"

	"github.com/sawpanic/predictmkt/internal/apperr"
	"github.com/sawpanic/predictmkt/internal/logging"
	"github.com/sawpanic/predictmkt/internal/market"
)

// Config holds the detector's two tunables. Categorical clusters (no
// Yes/No outcomes) always pass through unchanged — the detector only
// operates on binary markets.
type Config struct {
	MinProfitPct     float64
	MaxCombinedPrice float64
}

// DefaultConfig matches spec.md §4.3.
func DefaultConfig() Config {
	return Config{MinProfitPct: 2.0, MaxCombinedPrice: 0.95}
}

// sanitize rejects a MaxCombinedPrice outside (0,1] or a negative
// MinProfitPct — both indicate a misconfigured CONFIG_FILE override.
// Per the validation-error policy the bad field is logged and replaced
// with DefaultConfig's value rather than propagated into Detect's math.
func sanitize(cfg Config) Config {
	def := DefaultConfig()
	log := logging.For("arbitrage")

	if cfg.MaxCombinedPrice <= 0 || cfg.MaxCombinedPrice > 1 {
		log.Warn().Err(&apperr.ValidationError{Field: "max_combined_price", Reason: "outside (0,1]"}).
			Float64("value", cfg.MaxCombinedPrice).Msg("ignoring invalid arbitrage config")
		cfg.MaxCombinedPrice = def.MaxCombinedPrice
	}
	if cfg.MinProfitPct < 0 {
		log.Warn().Err(&apperr.ValidationError{Field: "min_profit_pct", Reason: "negative"}).
			Float64("value", cfg.MinProfitPct).Msg("ignoring invalid arbitrage config")
		cfg.MinProfitPct = def.MinProfitPct
	}
	return cfg
}

// Detect finds the best cross-venue Yes-buy/No-buy pair for a unified
// cluster. Returns nil when the cluster has fewer than 2 members, when no member
// offers an interior Yes or No price, when the combined cost is at or
// above MaxCombinedPrice, or when the resulting profit is below
// MinProfitPct.
func Detect(u market.UnifiedMarket, cfg Config) *market.ArbitrageOpportunity {
	cfg = sanitize(cfg)

	if len(u.Members) < 2 {
		return nil
	}

	var yesBest, noBest market.PriceQuote
	var haveYes, haveNo bool

	for venue, m := range u.Members {
		yes, okYes := m.Outcome("Yes")
		if okYes && yes.Price > 0 && yes.Price < 1 {
			if !haveYes || yes.Price < yesBest.Price {
				yesBest = market.PriceQuote{Venue: venue, Price: yes.Price}
				haveYes = true
			}
		}
		no, okNo := m.Outcome("No")
		if okNo && no.Price > 0 && no.Price < 1 {
			if !haveNo || no.Price < noBest.Price {
				noBest = market.PriceQuote{Venue: venue, Price: no.Price}
				haveNo = true
			}
		}
	}

	if !haveYes || !haveNo {
		return nil
	}

	total := yesBest.Price + noBest.Price
	if total >= cfg.MaxCombinedPrice {
		return nil
	}

	profitPct := (1 - total) / total * 100
	if profitPct < cfg.MinProfitPct {
		return nil
	}

	return &market.ArbitrageOpportunity{
		Exists:     true,
		ProfitPct:  profitPct,
		TotalCost:  total,
		YesBuy:     yesBest,
		NoSell:     noBest,
		DetectedAt: time.Now().UTC(),
	}
}

// DetectBatch applies Detect across a sequence of clusters and returns
// the emitted opportunities sorted by ProfitPct descending.
func DetectBatch(clusters []market.UnifiedMarket, cfg Config) []market.ArbitrageOpportunity {
	var found []market.ArbitrageOpportunity
	for _, u := range clusters {
		if op := Detect(u, cfg); op != nil {
			found = append(found, *op)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].ProfitPct > found[j].ProfitPct
	})
	return found
}
