package urlcheck

import (
	"container/list"
	"sync"
	"time"
)

type cacheEntry struct {
	url       string
	risk      Risk
	expiresAt time.Time
}

// resultCache is a thread-safe LRU with per-entry TTL. Expired entries are
// dropped on read; capacity is enforced on write.
type resultCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	lru      *list.List
}

func newResultCache(capacity int, ttl time.Duration) *resultCache {
	return &resultCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
	}
}

func (c *resultCache) get(url string) (Risk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[url]
	if !ok {
		return RiskUnknown, false
	}
	ent := elem.Value.(*cacheEntry)
	if time.Now().After(ent.expiresAt) {
		c.lru.Remove(elem)
		delete(c.items, url)
		return RiskUnknown, false
	}
	c.lru.MoveToFront(elem)
	return ent.risk, true
}

func (c *resultCache) set(url string, risk Risk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)
	if elem, ok := c.items[url]; ok {
		c.lru.MoveToFront(elem)
		ent := elem.Value.(*cacheEntry)
		ent.risk = risk
		ent.expiresAt = expiresAt
		return
	}

	elem := c.lru.PushFront(&cacheEntry{url: url, risk: risk, expiresAt: expiresAt})
	c.items[url] = elem

	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).url)
	}
}
