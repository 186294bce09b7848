// Package venueb wires the generic venues.Adapter for Venue-B: 50
// requests/min, optional bearer auth via VENUE_B_API_KEY.
package venueb

import (
	"github.com/sawpanic/predictmkt/internal/market"
	"github.com/sawpanic/predictmkt/internal/venues"
)

const RequestsPerMinute = 50

// New builds a Venue-B adapter. apiKey, when non-empty, is forwarded as
// a bearer token on every request. Pass nil for fetcher to use the
// default HTTP transport against baseURL.
func New(baseURL, apiKey string, fetcher venues.Fetcher) *venues.Adapter {
	if fetcher == nil {
		auth := ""
		if apiKey != "" {
			auth = "Bearer " + apiKey
		}
		fetcher = venues.NewHTTPFetcher(baseURL, auth)
	}
	return venues.NewAdapter(venues.Config{
		Venue:             market.VenueB,
		RequestsPerMinute: RequestsPerMinute,
	}, fetcher)
}
