package arbitrage

import (
	"fmt"

	"github.com/sawpanic/predictmkt/internal/market"
)

// Instructions is the pure function output over an ArbitrageOpportunity:
// a three-step plan, a plain-prose summary, a longer explanation, and a
// list of cautions.
type Instructions struct {
	Steps       []string
	Summary     string
	Explanation string
	Cautions    []string
}

// BuildInstructions is a pure function over an ArbitrageOpportunity.
func BuildInstructions(op market.ArbitrageOpportunity) Instructions {
	if !op.Exists {
		return Instructions{}
	}

	collectPerDollar := (1 - op.TotalCost) * 100

	steps := []string{
		fmt.Sprintf("Buy YES on %s at %.4f", op.YesBuy.Venue, op.YesBuy.Price),
		fmt.Sprintf("Sell YES on %s at %.4f", op.NoSell.Venue, op.NoSell.Price),
		fmt.Sprintf("Collect %.2f¢ per $1", collectPerDollar),
	}

	summary := fmt.Sprintf(
		"Buy YES on %s for %.4f, sell YES (buy NO) on %s for %.4f, locking in %.2f%% profit before fees.",
		op.YesBuy.Venue, op.YesBuy.Price, op.NoSell.Venue, op.NoSell.Price, op.ProfitPct,
	)

	explanation := fmt.Sprintf(
		"The combined cost of buying YES on %s and the opposing NO on %s is %.4f, below the 1.00 payout "+
			"threshold. Holding both positions to resolution guarantees a %.2f%% return on capital risked, "+
			"regardless of which side resolves true.",
		op.YesBuy.Venue, op.NoSell.Venue, op.TotalCost, op.ProfitPct,
	)

	var cautions []string
	if op.ProfitPct < 3 {
		cautions = append(cautions, "Thin margin: fees may exhaust profit")
	}
	if op.ProfitPct > 10 {
		cautions = append(cautions, "Unusually large spread: verify data accuracy before trading")
	}

	return Instructions{
		Steps:       steps,
		Summary:     summary,
		Explanation: explanation,
		Cautions:    cautions,
	}
}
