package cache

import (
	"bytes"
	"container/list"
	"sync"
)

type memoryEntry struct {
	key   string
	value []byte
}

// MemoryCache is the bounded, process-local fast tier. Least-recently-used
// entries are evicted once maxEntries or maxBytes is exceeded; a zero limit
// disables that bound. Contents are non-authoritative and vanish with the
// process. Safe for concurrent use.
type MemoryCache struct {
	mu         sync.Mutex
	maxEntries int
	maxBytes   int64
	curBytes   int64
	order      *list.List               // front = most recently used
	index      map[string]*list.Element // key -> element holding *memoryEntry
}

func NewMemoryCache(maxEntries int, maxBytes int64) *MemoryCache {
	return &MemoryCache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		order:      list.New(),
		index:      make(map[string]*list.Element),
	}
}

func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return bytes.Clone(elem.Value.(*memoryEntry).value), true
}

func (c *MemoryCache) Put(key string, value []byte) {
	if key == "" {
		return
	}
	// An entry that alone exceeds the byte budget is not admitted.
	if c.maxBytes > 0 && entrySize(key, value) > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored := bytes.Clone(value)
	if elem, ok := c.index[key]; ok {
		entry := elem.Value.(*memoryEntry)
		c.curBytes += int64(len(stored)) - int64(len(entry.value))
		entry.value = stored
		c.order.MoveToFront(elem)
	} else {
		elem := c.order.PushFront(&memoryEntry{key: key, value: stored})
		c.index[key] = elem
		c.curBytes += entrySize(key, stored)
	}

	c.evictLocked()
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		c.removeLocked(elem)
	}
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *MemoryCache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}

func (c *MemoryCache) evictLocked() {
	for c.overLimitLocked() {
		tail := c.order.Back()
		if tail == nil {
			return
		}
		c.removeLocked(tail)
	}
}

func (c *MemoryCache) overLimitLocked() bool {
	if c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		return true
	}
	if c.maxBytes > 0 && c.curBytes > c.maxBytes {
		return true
	}
	return false
}

func (c *MemoryCache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*memoryEntry)
	c.order.Remove(elem)
	delete(c.index, entry.key)
	c.curBytes -= entrySize(entry.key, entry.value)
}
