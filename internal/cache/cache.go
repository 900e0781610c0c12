// Package cache provides a small TTL-bound LRU used for fetched pages and
// catalog query results.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Defaults applied by New for non-positive arguments.
const (
	DefaultMaxItems = 1024
	DefaultTTL      = time.Hour
)

// TTL is a size- and age-bounded LRU. The zero value is not usable; call New.
type TTL[K comparable, V any] struct {
	lru *expirable.LRU[K, V]
}

// New returns a cache holding at most maxItems values for ttl each.
func New[K comparable, V any](maxItems int, ttl time.Duration) *TTL[K, V] {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTL[K, V]{lru: expirable.NewLRU[K, V](maxItems, nil, ttl)}
}

// Get returns the live value for key and marks it recently used.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

// Set stores value under key, refreshing its expiry.
func (c *TTL[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

// Delete removes key.
func (c *TTL[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

// Invalidate drops every entry.
func (c *TTL[K, V]) Invalidate() {
	c.lru.Purge()
}

// Len returns the number of stored entries. Expired entries count until
// the background sweep removes them.
func (c *TTL[K, V]) Len() int {
	return c.lru.Len()
}
