package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// LRU is a size-bounded map whose entries expire after sitting idle for ttl.
// Every GetOrCreate refreshes an entry's expiry.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
	pinned  func(T) bool
}

type entry[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// Option configures an LRU.
type Option[T any] func(*LRU[T])

// WithClock overrides time.Now.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *LRU[T]) { c.now = now }
}

// WithPinned keeps entries for which pinned returns true out of expiry and
// eviction. A cache full of pinned entries grows past maxSize.
func WithPinned[T any](pinned func(T) bool) Option[T] {
	return func(c *LRU[T]) { c.pinned = pinned }
}

// NewLRU creates a cache holding at most maxSize entries, each kept for ttl
// after its last use.
func NewLRU[T any](maxSize int, ttl time.Duration, opts ...Option[T]) *LRU[T] {
	c := &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
		pinned:  func(T) bool { return false },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate returns the live value for key, storing create() first if
// there is none. The lookup and the insert are atomic.
func (c *LRU[T]) GetOrCreate(key string, create func() T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[T])
		if !c.expired(e) {
			c.touch(elem)
			return e.data
		}
		c.removeElement(elem)
	}
	data := create()
	c.insert(key, data)
	return data
}

// DeletePrefix removes every key starting with prefix and returns how many
// were removed.
func (c *LRU[T]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, elem := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(elem)
			n++
		}
	}
	return n
}

// CleanExpired removes all expired entries and returns count of removed items
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if c.expired(elem.Value.(*entry[T])) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

// Size returns the current number of items in the cache
func (c *LRU[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[T]) expired(e *entry[T]) bool {
	return c.now().After(e.expiresAt) && !c.pinned(e.data)
}

func (c *LRU[T]) touch(elem *list.Element) {
	elem.Value.(*entry[T]).expiresAt = c.now().Add(c.ttl)
	c.lru.MoveToFront(elem)
}

func (c *LRU[T]) insert(key string, data T) {
	elem := c.lru.PushFront(&entry[T]{key: key, data: data, expiresAt: c.now().Add(c.ttl)})
	c.items[key] = elem

	// Evict the least recently used unpinned entries while over capacity.
	for elem := c.lru.Back(); elem != nil && c.lru.Len() > c.maxSize; {
		prev := elem.Prev()
		if e := elem.Value.(*entry[T]); e.key != key && !c.pinned(e.data) {
			c.removeElement(elem)
		}
		elem = prev
	}
}

func (c *LRU[T]) removeElement(elem *list.Element) {
	e := elem.Value.(*entry[T])
	delete(c.items, e.key)
	c.lru.Remove(elem)
}
