// Package cache memoizes loaded datasets by content hash so repeated uploads
// of identical bytes never redo parsing or sampling. Entries live only for the
// process lifetime; capacity is bounded and the least recently used dataset is
// evicted first.
package cache

import (
	"container/list"
	"sync"

	"github.com/KaramelBytes/tablechat/internal/ingest"
)

// Entry is one memoized load: the dataset plus the notices produced while
// loading it, replayed verbatim on every cache hit.
type Entry struct {
	Dataset *ingest.Dataset
	Notices []ingest.Notice
}

type item struct {
	hash    string
	entry   Entry
	element *list.Element
}

// LRU is a mutex-guarded, capacity-bounded cache keyed by content hash.
type LRU struct {
	capacity int
	mu       sync.Mutex
	items    map[string]*item
	order    *list.List
	hits     uint64
	misses   uint64
}

// New creates a cache holding at most capacity datasets.
func New(capacity int) *LRU {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU{
		capacity: capacity,
		items:    make(map[string]*item),
		order:    list.New(),
	}
}

// Get returns the entry for hash if present and marks it most recently used.
func (c *LRU) Get(hash string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[hash]
	if !ok {
		c.misses++
		return Entry{}, false
	}
	c.hits++
	c.order.MoveToFront(it.element)
	return it.entry, true
}

// Put stores an entry under hash, evicting the least recently used entry when
// the cache is full. Storing an existing hash refreshes it.
func (c *LRU) Put(hash string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if it, ok := c.items[hash]; ok {
		it.entry = entry
		c.order.MoveToFront(it.element)
		return
	}

	it := &item{hash: hash, entry: entry}
	it.element = c.order.PushFront(it)
	c.items[hash] = it

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			old := oldest.Value.(*item)
			c.order.Remove(oldest)
			delete(c.items, old.hash)
		}
	}
}

// Len returns the number of cached datasets.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats reports hit and miss counts since construction.
func (c *LRU) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
