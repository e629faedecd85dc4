package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/metrics"
	"github.com/lexisearch/lexisearch/internal/models"
)

// LRU is an in-process, bounded-capacity cache backend. It is the default
// backend: no network dependency, process-local hit rate only.
type LRU struct {
	mu  sync.Mutex
	lru *lru.Cache[string, models.CacheEntry]
	log *logrus.Logger
}

// NewLRU returns an LRU backend holding at most capacity entries, evicting
// least-recently-used entries once full.
func NewLRU(capacity int, log *logrus.Logger) (*LRU, error) {
	inner, err := lru.New[string, models.CacheEntry](capacity)
	if err != nil {
		return nil, err
	}

	return &LRU{lru: inner, log: log}, nil
}

// Get implements Store.
func (c *LRU) Get(_ context.Context, key string) (models.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(key)
	if !ok {
		metrics.CacheMissesTotal.WithLabelValues("lru").Inc()

		return models.CacheEntry{}, false
	}

	if entry.Expired(time.Now()) {
		c.lru.Remove(key)
		metrics.CacheMissesTotal.WithLabelValues("lru").Inc()

		return models.CacheEntry{}, false
	}

	metrics.CacheHitsTotal.WithLabelValues("lru").Inc()

	return entry, true
}

// Set implements Store.
func (c *LRU) Set(_ context.Context, key string, value []byte, ttlMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(key, models.CacheEntry{Value: value, CreatedAt: time.Now(), TTLMs: ttlMs})
}

// Delete implements Store.
func (c *LRU) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Remove(key)
}
