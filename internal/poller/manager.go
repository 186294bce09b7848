package poller

import (
	"context"

	"github.com/sawpanic/predictmkt/internal/market"
)

// Manager owns one Poller per venue and starts/stops them together.
type Manager struct {
	pollers []*Poller
}

// NewManager builds a Manager from the already-constructed per-venue
// pollers (see New).
func NewManager(pollers ...*Poller) *Manager {
	return &Manager{pollers: pollers}
}

// Start begins every poller's timer loop.
func (m *Manager) Start(ctx context.Context) {
	for _, p := range m.pollers {
		p.Start(ctx)
	}
}

// Stop stops every poller's timer loop and waits for in-flight ticks.
func (m *Manager) Stop() {
	for _, p := range m.pollers {
		p.Stop()
	}
}

// StalenessStatus reports whether each venue is stale, for
// /api/staleness-status.
func (m *Manager) StalenessStatus() map[market.VenueTag]bool {
	out := make(map[market.VenueTag]bool, len(m.pollers))
	for _, p := range m.pollers {
		out[p.Venue()] = p.IsStale()
	}
	return out
}

// PollingStats reports each venue's request bookkeeping, for
// /api/polling-stats.
func (m *Manager) PollingStats() map[market.VenueTag]Stats {
	out := make(map[market.VenueTag]Stats, len(m.pollers))
	for _, p := range m.pollers {
		out[p.Venue()] = p.Stats()
	}
	return out
}
