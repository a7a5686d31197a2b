package capability

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/senseware-io/sapi/pkg/sapi"
)

// Cache maps capability ids to their resolutions with TTL expiry. One
// cache instance belongs to one router/backend session; resolutions are
// never shared across processes, since a backend upgrade between sessions
// can change its endpoint surface.
//
// Resolutions are written whole, so concurrent readers never observe a
// partially populated value. Writes are last-write-wins; racing detections
// converge on the same verdict against an unchanged backend.
type Cache struct {
	entries        *ttlcache.Cache[sapi.CapabilityID, sapi.Resolution]
	resolutionTTL  time.Duration
	authBlockedTTL time.Duration
}

// NewCache creates a resolution cache. Resolved and unsupported verdicts
// live for resolutionTTL; auth-blocked verdicts for authBlockedTTL, which
// should be much shorter since credentials may be refreshed at any time.
func NewCache(resolutionTTL, authBlockedTTL time.Duration) *Cache {
	entries := ttlcache.New(
		ttlcache.WithTTL[sapi.CapabilityID, sapi.Resolution](resolutionTTL),
		ttlcache.WithDisableTouchOnHit[sapi.CapabilityID, sapi.Resolution](),
	)

	// Janitor for expired-entry eviction; Get filters expired entries on
	// its own, so this only reclaims memory.
	go entries.Start()

	return &Cache{
		entries:        entries,
		resolutionTTL:  resolutionTTL,
		authBlockedTTL: authBlockedTTL,
	}
}

// Get returns the non-expired resolution for a capability, if any.
func (c *Cache) Get(id sapi.CapabilityID) (sapi.Resolution, bool) {
	item := c.entries.Get(id)
	if item == nil {
		return sapi.Resolution{}, false
	}

	return item.Value(), true
}

// Put stores a resolution, replacing any previous one for the capability.
func (c *Cache) Put(resolution sapi.Resolution) {
	ttl := c.resolutionTTL
	if resolution.State == sapi.ResolutionAuthBlocked {
		ttl = c.authBlockedTTL
	}

	c.entries.Set(resolution.Capability, resolution, ttl)
}

// Invalidate drops the cached resolution for one capability.
func (c *Cache) Invalidate(id sapi.CapabilityID) {
	c.entries.Delete(id)
}

// InvalidateAll drops every cached resolution.
func (c *Cache) InvalidateAll() {
	c.entries.DeleteAll()
}

// Stop releases the cache's background resources.
func (c *Cache) Stop() {
	c.entries.Stop()
}
