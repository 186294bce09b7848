package venues

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/predictmkt/internal/apperr"
	"github.com/sawpanic/predictmkt/internal/market"
)

func TestNormalizeDropsMissingQuestion(t *testing.T) {
	a := NewAdapter(Config{Venue: market.VenueA, RequestsPerMinute: 6000}, nil)
	_, ok := a.Normalize(RawMarket{ID: "x", Outcomes: []RawOutcome{{Name: "Yes", Price: 0.5}}})
	assert.False(t, ok)
}

func TestNormalizeDropsMissingPrices(t *testing.T) {
	a := NewAdapter(Config{Venue: market.VenueA, RequestsPerMinute: 6000}, nil)
	_, ok := a.Normalize(RawMarket{ID: "x", Question: "Will X happen?"})
	assert.False(t, ok)
}

func TestNormalizeClampsPercentagePrices(t *testing.T) {
	a := NewAdapter(Config{Venue: market.VenueA, RequestsPerMinute: 6000}, nil)
	m, ok := a.Normalize(RawMarket{
		ID:       "x",
		Question: "Will X happen?",
		Outcomes: []RawOutcome{{Name: "Yes", Price: 52}, {Name: "No", Price: 48}},
	})
	require.True(t, ok)
	yes, _ := m.Outcome("Yes")
	no, _ := m.Outcome("No")
	assert.InDelta(t, 0.52, yes.Price, 1e-9)
	assert.InDelta(t, 0.48, no.Price, 1e-9)
}

func TestFetchMarketsStopsOnShortPage(t *testing.T) {
	var calls int32
	fetcher := FetcherFunc(func(ctx context.Context, opts Options, page int) ([]RawMarket, error) {
		atomic.AddInt32(&calls, 1)
		if page == 0 {
			return []RawMarket{
				{ID: "1", Question: "Q1?", Outcomes: []RawOutcome{{Name: "Yes", Price: 0.5}, {Name: "No", Price: 0.5}}},
			}, nil // short page (< limit) -> stop
		}
		t.Fatalf("should not fetch page %d after a short page", page)
		return nil, nil
	})

	a := NewAdapter(Config{Venue: market.VenueA, RequestsPerMinute: 6000, DefaultPageLimit: 10}, fetcher)
	markets, err := a.FetchMarkets(context.Background(), Options{MaxPages: 5})
	require.NoError(t, err)
	assert.Len(t, markets, 1)
	assert.EqualValues(t, 1, calls)
}

func TestFetchMarketsRetriesThenSucceeds(t *testing.T) {
	var attempts int32
	fetcher := FetcherFunc(func(ctx context.Context, opts Options, page int) ([]RawMarket, error) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 2 {
			return nil, errors.New("transient failure")
		}
		return []RawMarket{}, nil
	})

	a := NewAdapter(Config{Venue: market.VenueA, RequestsPerMinute: 6000}, fetcher)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := a.FetchMarkets(ctx, Options{MaxPages: 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, attempts, int32(2))
	assert.Equal(t, HealthHealthy, a.Health().Status)
}

func TestFetchMarketsDegradesHealthAfterRetriesExhausted(t *testing.T) {
	fetcher := FetcherFunc(func(ctx context.Context, opts Options, page int) ([]RawMarket, error) {
		return nil, errors.New("permanent failure")
	})

	a := NewAdapter(Config{Venue: market.VenueA, RequestsPerMinute: 6000}, fetcher)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := a.FetchMarkets(ctx, Options{MaxPages: 1})
	require.Error(t, err)
	assert.Equal(t, HealthDegraded, a.Health().Status)
	assert.NotEmpty(t, a.Health().LastError)
}

func TestFetchMarketsAuthErrorIsNotRetried(t *testing.T) {
	var attempts int32
	fetcher := FetcherFunc(func(ctx context.Context, opts Options, page int) ([]RawMarket, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, &apperr.AuthError{Venue: "venue_a", Err: errors.New("status 401")}
	})

	a := NewAdapter(Config{Venue: market.VenueA, RequestsPerMinute: 6000}, fetcher)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := a.FetchMarkets(ctx, Options{MaxPages: 1})
	require.Error(t, err)
	assert.EqualValues(t, 1, attempts, "an auth failure must not be retried")

	var authErr *apperr.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestClassifyCategoryFallsBackToKeyword(t *testing.T) {
	assert.Equal(t, market.CategoryCrypto, classifyCategory("", "Will Bitcoin hit $100k?"))
	assert.Equal(t, market.CategoryPolitics, classifyCategory("", "Will the president win the election?"))
	assert.Equal(t, market.CategoryOther, classifyCategory("", "Will something unrelated happen?"))
	assert.Equal(t, market.CategorySports, classifyCategory("sports", "anything"))
}
