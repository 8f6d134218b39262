// Package cache keeps recently generated documents in memory.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache is a size-bounded LRU cache safe for concurrent use.
type Cache[V any] struct {
	mtx sync.Mutex
	lru *lru.LRU[string, V]
	// dropping is set while entries are removed on purpose, so the eviction
	// callback only counts capacity evictions.
	dropping bool

	requests  prometheus.Counter
	hits      prometheus.Counter
	evictions prometheus.Counter
	items     prometheus.GaugeFunc
}

// New creates a cache holding at most size entries. Metrics are registered on reg
// under a "name" label; a nil reg skips registration.
func New[V any](name string, size int, reg prometheus.Registerer) (*Cache[V], error) {
	c := &Cache[V]{
		requests: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name:        "routedoc_cache_requests_total",
			Help:        "Total number of requests to the document cache.",
			ConstLabels: map[string]string{"name": name},
		}),
		hits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name:        "routedoc_cache_hits_total",
			Help:        "Total number of requests to the document cache that were a hit.",
			ConstLabels: map[string]string{"name": name},
		}),
		evictions: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name:        "routedoc_cache_evictions_total",
			Help:        "Total number of entries evicted from the document cache.",
			ConstLabels: map[string]string{"name": name},
		}),
	}

	l, err := lru.NewLRU[string, V](size, func(string, V) {
		if !c.dropping {
			c.evictions.Inc()
		}
	})
	if err != nil {
		return nil, err
	}
	c.lru = l

	c.items = promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "routedoc_cache_items",
		Help:        "Number of entries currently in the document cache.",
		ConstLabels: map[string]string{"name": name},
	}, func() float64 {
		c.mtx.Lock()
		defer c.mtx.Unlock()

		return float64(c.lru.Len())
	})

	return c, nil
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.requests.Inc()

	c.mtx.Lock()
	defer c.mtx.Unlock()

	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Inc()
	}
	return v, ok
}

func (c *Cache[V]) Set(key string, value V) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.lru.Add(key, value)
}

// Remove drops key. It does not count as an eviction.
func (c *Cache[V]) Remove(key string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.dropping = true
	c.lru.Remove(key)
	c.dropping = false
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.dropping = true
	c.lru.Purge()
	c.dropping = false
}

func (c *Cache[V]) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.lru.Len()
}
