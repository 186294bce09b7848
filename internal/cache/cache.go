package cache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/predictmkt/internal/apperr"
	"github.com/sawpanic/predictmkt/internal/logging"
	"github.com/sawpanic/predictmkt/internal/market"
)

const (
	metadataTTL         = 10 * time.Minute
	metadataExtendBy    = 5 * time.Minute
	metadataExtendHits  = 5
	metadataMaxIdle     = 15 * time.Minute
	fullTTL             = 5 * time.Minute
	fullMaxEntries      = 500
	unifiedTTL          = 5 * time.Minute
	matchConfidenceTTL  = 10 * time.Minute
	cleanupInterval     = 2 * time.Minute
	healthStaleAfter    = 60 * time.Second
)

// Cache is the in-memory store backing the aggregator and HTTP layer.
// It holds four independently-locked regions plus venue health state,
// and optionally mirrors writes to Redis (see redis_mirror.go). Nothing
// is ever read back from the mirror: restarting the process always
// starts from a cold, empty Cache, per the no-persistence non-goal.
type Cache struct {
	metadata         *ttlRegion[[]market.NormalizedMarket]
	full             *ttlRegion[market.NormalizedMarket]
	unified          *ttlRegion[market.UnifiedMarket]
	matchConfidence  *ttlRegion[float64]

	healthMu sync.RWMutex
	health   map[market.VenueTag]venueHealthRecord

	mirror Store // optional write-through mirror; nil disables it

	log zerolog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

type venueHealthRecord struct {
	Status      string
	LastAttempt time.Time
	LastSuccess time.Time
	LastError   string
}

// New builds a Cache with no mirror and starts its background cleanup
// goroutine. Call Close to stop it.
func New() *Cache {
	return NewWithMirror(nil)
}

// NewWithMirror builds a Cache that write-through mirrors every Set
// into store (pass nil to disable).
func NewWithMirror(store Store) *Cache {
	metadata := newTTLRegion[[]market.NormalizedMarket](metadataTTL)
	metadata.extendAfterHits = metadataExtendHits
	metadata.extendBy = metadataExtendBy

	full := newTTLRegion[market.NormalizedMarket](fullTTL)
	full.maxEntries = fullMaxEntries
	full.evictFraction = 0.2

	c := &Cache{
		metadata:        metadata,
		full:            full,
		unified:         newTTLRegion[market.UnifiedMarket](unifiedTTL),
		matchConfidence: newTTLRegion[float64](matchConfidenceTTL),
		health:          make(map[market.VenueTag]venueHealthRecord),
		mirror:          store,
		log:             logging.For("cache"),
		stopCh:          make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()
	return c
}

// Close stops the background cleanup goroutine. Safe to call multiple
// times.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

func (c *Cache) cleanupLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.runCleanup()
		}
	}
}

func (c *Cache) runCleanup() {
	c.metadata.Cleanup()
	c.full.Cleanup()
	c.unified.Cleanup()
	c.matchConfidence.Cleanup()
	for _, key := range c.metadata.Keys() {
		c.metadata.EvictIfInactive(key, metadataMaxIdle)
	}
	c.downgradeStaleHealth()
	c.log.Debug().
		Int("metadata", c.metadata.Len()).
		Int("full", c.full.Len()).
		Int("unified", c.unified.Len()).
		Int("match_confidence", c.matchConfidence.Len()).
		Msg("cache cleanup pass")
}

// --- metadata region: category -> normalized markets ---

func categoryKey(cat market.Category) string {
	return strings.ToLower(string(cat))
}

func (c *Cache) GetMetadata(cat market.Category) ([]market.NormalizedMarket, bool) {
	return c.metadata.Get(categoryKey(cat))
}

func (c *Cache) SetMetadata(cat market.Category, markets []market.NormalizedMarket) {
	c.metadata.Set(categoryKey(cat), markets)
	c.mirrorSet("metadata", categoryKey(cat), markets)
}

// --- full region: market id -> normalized market ---

func (c *Cache) GetFull(id string) (market.NormalizedMarket, bool) {
	return c.full.Get(id)
}

func (c *Cache) SetFull(m market.NormalizedMarket) {
	c.full.Set(m.ID, m)
	c.mirrorSet("full", m.ID, m)
}

// --- unified region: unified id -> unified market ---

func (c *Cache) GetUnified(unifiedID string) (market.UnifiedMarket, bool) {
	return c.unified.Get(unifiedID)
}

func (c *Cache) SetUnified(u market.UnifiedMarket) {
	c.unified.Set(u.UnifiedID, u)
	c.mirrorSet("unified", u.UnifiedID, u)
}

// AllUnified returns every currently-cached (non-expired) unified
// market, sorted by unified ID for deterministic iteration.
func (c *Cache) AllUnified() []market.UnifiedMarket {
	keys := c.unified.Keys()
	sort.Strings(keys)
	out := make([]market.UnifiedMarket, 0, len(keys))
	for _, k := range keys {
		if u, ok := c.unified.Get(k); ok {
			out = append(out, u)
		}
	}
	return out
}

// --- match_confidence region: unordered (idA, idB) -> confidence ---

func confidenceKey(idA, idB string) string {
	if idA > idB {
		idA, idB = idB, idA
	}
	return idA + "|" + idB
}

func (c *Cache) GetMatchConfidence(idA, idB string) (float64, bool) {
	return c.matchConfidence.Get(confidenceKey(idA, idB))
}

// SetMatchConfidence caches confidence, a value the matching engine
// always produces in [0,1]. A value outside that range indicates a bug
// upstream; per the validation-error policy it is logged and the write
// is ignored rather than corrupting the cache with a nonsensical score.
func (c *Cache) SetMatchConfidence(idA, idB string, confidence float64) {
	if confidence < 0 || confidence > 1 {
		c.log.Warn().Err(&apperr.ValidationError{Field: "confidence", Reason: "outside [0,1]"}).
			Float64("value", confidence).Msg("ignoring invalid match confidence")
		return
	}
	key := confidenceKey(idA, idB)
	c.matchConfidence.Set(key, confidence)
	c.mirrorSet("match_confidence", key, confidence)
}

func (c *Cache) mirrorSet(region, key string, value any) {
	if c.mirror == nil {
		return
	}
	// Fire-and-forget: a mirror failure never affects the in-memory
	// path, and the value is never read back from it.
	go func() {
		if err := c.mirror.Set(region, key, value); err != nil {
			c.log.Warn().Err(err).Str("region", region).Msg("cache mirror write failed")
		}
	}()
}
