package cache

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/metrics"
	"github.com/lexisearch/lexisearch/internal/models"
)

const keyPrefix = "lexisearch:cache:"

// Redis is an external cache backend shared across service instances. Every
// call is best-effort: a Redis failure is logged and treated as a miss, it
// never surfaces to the caller.
type Redis struct {
	client *goredis.Client
	log    *logrus.Logger
}

// NewRedis returns a Redis backend wrapping an already-configured client.
func NewRedis(client *goredis.Client, log *logrus.Logger) *Redis {
	return &Redis{client: client, log: log}
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (models.CacheEntry, bool) {
	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			r.log.WithError(err).WithField("key", key).Warn("cache: redis get failed")
		}

		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()

		return models.CacheEntry{}, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("cache: redis entry unmarshal failed")
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()

		return models.CacheEntry{}, false
	}

	if entry.Expired(time.Now()) {
		r.Delete(ctx, key)
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()

		return models.CacheEntry{}, false
	}

	metrics.CacheHitsTotal.WithLabelValues("redis").Inc()

	return entry, true
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttlMs int64) {
	entry := models.CacheEntry{Value: value, CreatedAt: time.Now(), TTLMs: ttlMs}

	raw, err := json.Marshal(entry)
	if err != nil {
		r.log.WithError(err).WithField("key", key).Warn("cache: redis entry marshal failed")

		return
	}

	ttl := time.Duration(ttlMs) * time.Millisecond
	if err := r.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("cache: redis set failed")
	}
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("cache: redis delete failed")
	}
}
