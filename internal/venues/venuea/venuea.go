// Package venuea wires the generic venues.Adapter for Venue-A: 100
// requests/min, no authentication.
package venuea

import (
	"github.com/sawpanic/predictmkt/internal/market"
	"github.com/sawpanic/predictmkt/internal/venues"
)

const RequestsPerMinute = 100

// New builds a Venue-A adapter. Pass nil for fetcher to use the default
// HTTP transport against baseURL.
func New(baseURL string, fetcher venues.Fetcher) *venues.Adapter {
	if fetcher == nil {
		fetcher = venues.NewHTTPFetcher(baseURL, "")
	}
	return venues.NewAdapter(venues.Config{
		Venue:             market.VenueA,
		RequestsPerMinute: RequestsPerMinute,
	}, fetcher)
}
