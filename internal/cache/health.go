package cache

import (
	"time"

	"github.com/sawpanic/predictmkt/internal/market"
	"github.com/sawpanic/predictmkt/internal/venues"
)

// RecordHealthAttempt records that a fetch attempt was made for venue.
func (c *Cache) RecordHealthAttempt(venue market.VenueTag, at time.Time) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()
	rec := c.health[venue]
	rec.LastAttempt = at
	if rec.Status == "" {
		rec.Status = string(venues.HealthHealthy)
	}
	c.health[venue] = rec
}

// RecordHealthSuccess marks venue healthy and records the success time.
func (c *Cache) RecordHealthSuccess(venue market.VenueTag, at time.Time) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()
	rec := c.health[venue]
	rec.Status = string(venues.HealthHealthy)
	rec.LastSuccess = at
	rec.LastError = ""
	c.health[venue] = rec
}

// RecordHealthFailure marks venue degraded and records the error.
func (c *Cache) RecordHealthFailure(venue market.VenueTag, at time.Time, errMsg string) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()
	rec := c.health[venue]
	rec.Status = string(venues.HealthDegraded)
	rec.LastAttempt = at
	rec.LastError = errMsg
	c.health[venue] = rec
}

// GetHealth returns the current health record for venue, applying the
// 60-second staleness downgrade at read time so callers never observe
// a "healthy" venue whose last success is stale.
func (c *Cache) GetHealth(venue market.VenueTag) venues.HealthStatus {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()
	rec := c.staleCheckLocked(venue)
	return venues.HealthStatus{
		Status:      venues.HealthState(rec.Status),
		LastAttempt: rec.LastAttempt,
		LastSuccess: rec.LastSuccess,
		LastError:   rec.LastError,
	}
}

// AllHealth returns the health record for every venue seen so far,
// applying the same staleness downgrade as GetHealth.
func (c *Cache) AllHealth() map[market.VenueTag]venues.HealthStatus {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()
	out := make(map[market.VenueTag]venues.HealthStatus, len(c.health))
	for venue := range c.health {
		rec := c.staleCheckLocked(venue)
		out[venue] = venues.HealthStatus{
			Status:      venues.HealthState(rec.Status),
			LastAttempt: rec.LastAttempt,
			LastSuccess: rec.LastSuccess,
			LastError:   rec.LastError,
		}
	}
	return out
}

// staleCheckLocked downgrades venue to degraded if it's currently
// healthy but its last success is older than healthStaleAfter. Must be
// called with healthMu held.
func (c *Cache) staleCheckLocked(venue market.VenueTag) venueHealthRecord {
	rec := c.health[venue]
	if rec.Status == string(venues.HealthHealthy) && !rec.LastSuccess.IsZero() &&
		time.Since(rec.LastSuccess) > healthStaleAfter {
		rec.Status = string(venues.HealthDegraded)
		c.health[venue] = rec
	}
	return rec
}

func (c *Cache) downgradeStaleHealth() {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()
	for venue := range c.health {
		c.staleCheckLocked(venue)
	}
}
