package matching

import "github.com/sawpanic/predictmkt/internal/market"

// Confidence computes the match confidence between two normalized
// markets: 0.5*text_similarity + 0.3*entity_score + 0.2*date_score.
// Symmetric by construction (every sub-score is symmetric).
func Confidence(a, b market.NormalizedMarket) float64 {
	text := TextSimilarity(a.Question, b.Question)
	entities := entityScore(extractEntities(a.Question), extractEntities(b.Question))
	dates := compareDates(a.EndDate, b.EndDate)

	score := 0.5*text + 0.3*entities + 0.2*dates
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
