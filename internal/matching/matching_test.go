package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/predictmkt/internal/market"
)

func mkMarket(venue market.VenueTag, id, question string, end time.Time, yes, no float64, vol float64) market.NormalizedMarket {
	return market.NormalizedMarket{
		ID:       id,
		Venue:    venue,
		Question: question,
		Outcomes: []market.Outcome{
			{Name: "Yes", Price: yes},
			{Name: "No", Price: no},
		},
		Volume24h:  vol,
		EndDate:    &end,
		LastUpdate: time.Now(),
	}
}

func TestLevenshteinProperties(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("same string", "same string"))
	assert.Equal(t, Levenshtein("kitten", "sitting"), Levenshtein("sitting", "kitten"))

	// Triangle inequality across a handful of strings.
	strs := []string{"abcdef", "abddef", "xyz", "", "abcdefgh"}
	for _, a := range strs {
		for _, b := range strs {
			for _, c := range strs {
				ab, bc, ac := Levenshtein(a, b), Levenshtein(b, c), Levenshtein(a, c)
				assert.LessOrEqual(t, ac, ab+bc)
			}
		}
	}
}

func TestTextSimilarityEdgeCases(t *testing.T) {
	assert.Equal(t, 1.0, TextSimilarity("", ""))
	assert.Equal(t, 1.0, TextSimilarity("will the", "the a")) // both reduce to empty after stopword removal
	assert.Equal(t, 0.0, TextSimilarity("", "something"))
}

func TestConfidenceSymmetric(t *testing.T) {
	end := time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC)
	a := mkMarket(market.VenueA, "a1", "Will Donald Trump win the 2024 US Presidential Election?", end, 0.52, 0.48, 1_500_000)
	b := mkMarket(market.VenueB, "b1", "Will Trump win 2024 Presidential Election?", end, 0.53, 0.47, 800_000)

	cAB := Confidence(a, b)
	cBA := Confidence(b, a)
	assert.InDelta(t, cAB, cBA, 1e-9)
	assert.GreaterOrEqual(t, cAB, 0.85)
}

func TestConfidenceIdenticalQuestionSameDateHigh(t *testing.T) {
	end := time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC)
	q := "Will Donald Trump win the 2024 election?"
	a := mkMarket(market.VenueA, "a1", q, end, 0.5, 0.5, 100)
	b := mkMarket(market.VenueB, "b1", q, end, 0.5, 0.5, 100)
	assert.GreaterOrEqual(t, Confidence(a, b), 0.95)
}

func TestConfidenceBounded(t *testing.T) {
	end := time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC)
	a := mkMarket(market.VenueA, "a1", "Completely unrelated question about cats", end, 0.5, 0.5, 0)
	b := mkMarket(market.VenueB, "b1", "Will something entirely different happen in sports", end, 0.5, 0.5, 0)
	c := Confidence(a, b)
	assert.GreaterOrEqual(t, c, 0.0)
	assert.LessOrEqual(t, c, 1.0)
}

// S1 — exact-match clustering.
func TestClusterS1ExactMatch(t *testing.T) {
	end := time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC)
	a := mkMarket(market.VenueA, "a1", "Will Donald Trump win the 2024 US Presidential Election?", end, 0.52, 0.48, 1_500_000)
	b := mkMarket(market.VenueB, "b1", "Will Trump win 2024 Presidential Election?", end, 0.53, 0.47, 800_000)

	result := Cluster([]market.NormalizedMarket{a, b}, DefaultThreshold)
	require.Len(t, result, 1)
	u := result[0]
	assert.Len(t, u.Members, 2)
	assert.GreaterOrEqual(t, u.MatchConfidence, 0.85)
	assert.InDelta(t, 2_300_000.0, u.Members[market.VenueA].Volume24h+u.Members[market.VenueB].Volume24h, 1e-6)
}

// S2 — rejected near-match.
func TestClusterS2RejectedNearMatch(t *testing.T) {
	end := time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC)
	a := mkMarket(market.VenueA, "a1", "Will Donald Trump win the 2024 US Presidential Election?", end, 0.52, 0.48, 1_500_000)
	b := mkMarket(market.VenueB, "b1", "Will Joe Biden win the 2024 US Presidential Election?", end, 0.53, 0.47, 800_000)

	result := Cluster([]market.NormalizedMarket{a, b}, DefaultThreshold)
	require.Len(t, result, 2)
	for _, u := range result {
		assert.Len(t, u.Members, 1)
	}
}

func TestClusterEmptyAndSingle(t *testing.T) {
	assert.Empty(t, Cluster(nil, DefaultThreshold))

	a := mkMarket(market.VenueA, "a1", "Will X happen?", time.Now(), 0.5, 0.5, 10)
	result := Cluster([]market.NormalizedMarket{a}, DefaultThreshold)
	require.Len(t, result, 1)
	assert.Len(t, result[0].Members, 1)
	assert.Equal(t, 1.0, result[0].MatchConfidence)
}

func TestClusterNeverJoinsSameVenue(t *testing.T) {
	q := "Will the championship game happen in November 2024?"
	a1 := mkMarket(market.VenueA, "a1", q, time.Now(), 0.5, 0.5, 10)
	a2 := mkMarket(market.VenueA, "a2", q, time.Now(), 0.5, 0.5, 10)

	result := Cluster([]market.NormalizedMarket{a1, a2}, DefaultThreshold)
	require.Len(t, result, 2)
}

func TestEntityExtractionNamesAndDates(t *testing.T) {
	e := extractEntities("Will Donald Trump win re-election in November 2024?")
	assert.Contains(t, e.Names, "Will Donald Trump")
	assert.Contains(t, e.Dates, "november 2024")
	assert.Contains(t, e.Events, "win")
}
