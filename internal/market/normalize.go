package market

import "math"

// ClampPrice assumes values > 1 are percentage-encoded (divides by 100)
// then clamps to [0,1]. Prices are never re-normalized to sum to 1.
func ClampPrice(p float64) float64 {
	if p > 1 {
		p = p / 100
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ComputeSpread derives the spread field at normalization time: for
// binary markets, |1 - (yes+no)|; for categorical, the mean absolute
// deviation of outcomes from the fair price 1/n.
func ComputeSpread(outcomes []Outcome) float64 {
	n := len(outcomes)
	if n == 0 {
		return 0
	}
	if n == 2 {
		var yes, no float64
		var hasYes, hasNo bool
		for _, o := range outcomes {
			switch normalizeOutcomeName(o.Name) {
			case "yes":
				yes, hasYes = o.Price, true
			case "no":
				no, hasNo = o.Price, true
			}
		}
		if hasYes && hasNo {
			return math.Abs(1 - (yes + no))
		}
	}
	fair := 1.0 / float64(n)
	sum := 0.0
	for _, o := range outcomes {
		sum += math.Abs(o.Price - fair)
	}
	return sum / float64(n)
}

// Valid reports whether m satisfies the data-model invariants: every
// outcome price in [0,1], volume and liquidity non-negative.
func (m NormalizedMarket) Valid() bool {
	if m.Volume24h < 0 || m.Liquidity < 0 {
		return false
	}
	for _, o := range m.Outcomes {
		if o.Price < 0 || o.Price > 1 {
			return false
		}
	}
	return true
}
