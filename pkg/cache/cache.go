package cache

import "time"

// Cache is the read-through store the identity service keeps in front of
// vendor and user lookups. A zero ttl keeps the entry until it is pushed out.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Put(key K, value V, ttl time.Duration)
	Delete(key K)
	Len() int
}
