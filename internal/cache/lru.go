// Package cache provides the reply cache for summary views: rendered
// summaries are cheap to keep and expensive to recompute against the
// store, and every write command for an owner invalidates that owner's
// entries.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// ReplyCache is an LRU cache with TTL and size-based eviction. Keys
// are "<owner>|<window>" so a whole owner can be invalidated at once.
type ReplyCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type entry struct {
	key       string
	text      string
	expiresAt time.Time
}

// Key builds the canonical cache key for an owner and window token.
func Key(owner, window string) string {
	return owner + "|" + window
}

func NewReplyCache(maxSize int, ttl time.Duration) *ReplyCache {
	return &ReplyCache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get returns a cached reply and whether it was present and fresh.
func (c *ReplyCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		return "", false
	}

	item := elem.Value.(*entry)
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return "", false
	}

	c.lru.MoveToFront(elem)
	return item.text, true
}

// Set stores a rendered reply, evicting the least recently used entry
// when over capacity.
func (c *ReplyCache) Set(key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &entry{
		key:       key,
		text:      text,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// InvalidateOwner drops every entry belonging to an owner. Called on
// each write command, since any of the owner's windows may now be
// stale.
func (c *ReplyCache) InvalidateOwner(owner string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := owner + "|"
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if strings.HasPrefix(elem.Value.(*entry).key, prefix) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

// CleanExpired removes all expired entries and returns how many went.
func (c *ReplyCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

// Size returns the current number of entries.
func (c *ReplyCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *ReplyCache) removeElement(elem *list.Element) {
	delete(c.items, elem.Value.(*entry).key)
	c.lru.Remove(elem)
}
