package position

import (
	"strings"
	"sync"
)

// IDCache holds owned position ids and per-position creation timestamps
// with process-wide lifetime. It is injected into the readers and the
// reconciler rather than accessed as ambient global state.
type IDCache struct {
	mu         sync.RWMutex
	ids        map[string][]string
	timestamps map[string]map[string]uint64
}

func NewIDCache() *IDCache {
	return &IDCache{
		ids:        make(map[string][]string),
		timestamps: make(map[string]map[string]uint64),
	}
}

// IDs returns the cached id list for an owner.
func (c *IDCache) IDs(owner string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids, ok := c.ids[ownerKey(owner)]
	if !ok {
		return nil, false
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out, true
}

// PutIDs replaces the cached id list for an owner.
func (c *IDCache) PutIDs(owner string, ids []string) {
	stored := make([]string, len(ids))
	copy(stored, ids)
	c.mu.Lock()
	c.ids[ownerKey(owner)] = stored
	c.mu.Unlock()
}

// Timestamps returns a copy of the known creation timestamps for an owner.
func (c *IDCache) Timestamps(owner string) map[string]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	known := c.timestamps[ownerKey(owner)]
	out := make(map[string]uint64, len(known))
	for id, ts := range known {
		out[id] = ts
	}
	return out
}

// PutTimestamp records the creation timestamp of one position.
func (c *IDCache) PutTimestamp(owner, id string, ts uint64) {
	key := ownerKey(owner)
	c.mu.Lock()
	if c.timestamps[key] == nil {
		c.timestamps[key] = make(map[string]uint64)
	}
	c.timestamps[key][id] = ts
	c.mu.Unlock()
}

// Invalidate drops everything cached for an owner.
func (c *IDCache) Invalidate(owner string) {
	key := ownerKey(owner)
	c.mu.Lock()
	delete(c.ids, key)
	delete(c.timestamps, key)
	c.mu.Unlock()
}

// Remove drops a single position id for an owner, keeping the rest.
func (c *IDCache) Remove(owner, id string) {
	key := ownerKey(owner)
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, ok := c.ids[key]
	if ok {
		kept := make([]string, 0, len(ids))
		for _, existing := range ids {
			if existing != id {
				kept = append(kept, existing)
			}
		}
		c.ids[key] = kept
	}
	if known := c.timestamps[key]; known != nil {
		delete(known, id)
	}
}

func ownerKey(owner string) string {
	return strings.ToLower(owner)
}
