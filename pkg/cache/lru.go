package cache

import (
	"fmt"
	"sync"
	"time"

	"qrpay/pkg/logger"
	"qrpay/pkg/metric"
)

const (
	_reasonCapacity = "lru"
	_reasonExpired  = "expired"
	_reasonPurged   = "purged"
)

var _ Cache[string, any] = (*LRUCache[string, any])(nil)

// node is an element of the intrusive recency list; head is most recent.
type node[K comparable, V any] struct {
	key        K
	value      V
	expires    time.Time
	prev, next *node[K, V]
}

func (n *node[K, V]) expired(now time.Time) bool {
	return !n.expires.IsZero() && !now.Before(n.expires)
}

type Option[K comparable, V any] func(*LRUCache[K, V])

// WithClock replaces time.Now for expiry checks.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *LRUCache[K, V]) {
		c.now = now
	}
}

// WithOnEvicted registers fn for entries dropped by capacity, expiry or Purge.
// Delete never calls it. fn runs outside the cache lock.
func WithOnEvicted[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *LRUCache[K, V]) {
		c.onEvicted = fn
	}
}

type LRUCache[K comparable, V any] struct {
	name      string
	capacity  int
	log       logger.Logger
	metrics   metric.Cache
	now       func() time.Time
	onEvicted func(key K, value V)

	mu    sync.Mutex
	items map[K]*node[K, V]
	head  *node[K, V]
	tail  *node[K, V]

	stop chan struct{}
	done chan struct{}
}

func NewLRUCache[K comparable, V any](
	name string,
	capacity int,
	log logger.Logger,
	metrics metric.Cache,
	opts ...Option[K, V],
) (*LRUCache[K, V], error) {
	const op = "cache.NewLRUCache"

	if name == "" {
		return nil, fmt.Errorf("%s: empty cache name", op)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%s: cache %q: capacity must be positive, got %d", op, name, capacity)
	}

	c := &LRUCache[K, V]{
		name:     name,
		capacity: capacity,
		log:      log.With("cache", name),
		metrics:  metrics,
		now:      time.Now,
		items:    make(map[K]*node[K, V], capacity),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	var zero V

	c.mu.Lock()
	n, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		c.metrics.Miss(c.name)
		return zero, false
	}
	if n.expired(c.now()) {
		c.unlink(n)
		c.mu.Unlock()
		c.evicted(n, _reasonExpired)
		c.metrics.Miss(c.name)
		return zero, false
	}
	c.moveToFront(n)
	value := n.value
	c.mu.Unlock()

	c.metrics.Hit(c.name)
	return value, true
}

// Put inserts or refreshes key. A refreshed entry takes the new ttl.
func (c *LRUCache[K, V]) Put(key K, value V, ttl time.Duration) {
	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	if n, ok := c.items[key]; ok {
		n.value, n.expires = value, expires
		c.moveToFront(n)
		c.mu.Unlock()
		return
	}

	var victim *node[K, V]
	if len(c.items) >= c.capacity {
		victim = c.tail
		c.unlink(victim)
	}

	n := &node[K, V]{key: key, value: value, expires: expires}
	c.items[key] = n
	c.pushFront(n)
	size := len(c.items)
	c.mu.Unlock()

	if victim != nil {
		c.evicted(victim, _reasonCapacity)
	}
	c.metrics.Size(c.name, size)
}

// Delete drops key without the eviction callback. Used when the cached record
// is known to be stale.
func (c *LRUCache[K, V]) Delete(key K) {
	c.mu.Lock()
	n, ok := c.items[key]
	if ok {
		c.unlink(n)
	}
	size := len(c.items)
	c.mu.Unlock()

	if ok {
		c.metrics.Size(c.name, size)
	}
}

func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRUCache[K, V]) Capacity() int {
	return c.capacity
}

// Purge empties the cache, reporting every entry as evicted.
func (c *LRUCache[K, V]) Purge() {
	c.mu.Lock()
	dropped := make([]*node[K, V], 0, len(c.items))
	for n := c.head; n != nil; n = n.next {
		dropped = append(dropped, n)
	}
	c.items = make(map[K]*node[K, V], c.capacity)
	c.head, c.tail = nil, nil
	c.mu.Unlock()

	for _, n := range dropped {
		c.evicted(n, _reasonPurged)
	}
}

// StartCleanup sweeps expired entries every interval until StopCleanup.
// Calling it again restarts the sweeper with the new interval.
func (c *LRUCache[K, V]) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.StopCleanup()

	c.mu.Lock()
	stop, done := make(chan struct{}), make(chan struct{})
	c.stop, c.done = stop, done
	c.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-stop:
				return
			}
		}
	}()
}

// StopCleanup stops the sweeper and waits for it to exit.
func (c *LRUCache[K, V]) StopCleanup() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (c *LRUCache[K, V]) sweep() {
	now := c.now()

	c.mu.Lock()
	var dropped []*node[K, V]
	for n := c.tail; n != nil; {
		prev := n.prev
		if n.expired(now) {
			c.unlink(n)
			dropped = append(dropped, n)
		}
		n = prev
	}
	size := len(c.items)
	c.mu.Unlock()

	if len(dropped) == 0 {
		return
	}
	for _, n := range dropped {
		c.evicted(n, _reasonExpired)
	}
	c.metrics.Size(c.name, size)
	c.log.Infow("expired entries swept", "removed", len(dropped), "remaining", size)
}

func (c *LRUCache[K, V]) evicted(n *node[K, V], reason string) {
	c.metrics.Eviction(c.name, reason)
	if c.onEvicted != nil {
		c.onEvicted(n.key, n.value)
	}
}

// unlink removes n from both the map and the list. Caller holds mu.
func (c *LRUCache[K, V]) unlink(n *node[K, V]) {
	delete(c.items, n.key)
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (c *LRUCache[K, V]) pushFront(n *node[K, V]) {
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRUCache[K, V]) moveToFront(n *node[K, V]) {
	if c.head == n {
		return
	}
	// detach without touching the map
	n.prev.next = n.next
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nil
	c.pushFront(n)
}
