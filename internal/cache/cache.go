// Package cache stores serialized search results keyed by a query
// fingerprint, behind an in-process LRU or an external Redis backend.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/lexisearch/lexisearch/internal/models"
)

// Store is satisfied by every cache backend. Implementations treat their own
// failures as a miss rather than propagating an error to the caller, except
// where the contract below says otherwise.
type Store interface {
	// Get returns the entry for key, or (zero value, false) on miss, expiry,
	// or backend failure.
	Get(ctx context.Context, key string) (models.CacheEntry, bool)

	// Set stores value under key with the given TTL. Backend failures are
	// logged by the implementation and swallowed; Set never blocks a caller
	// on cache unavailability.
	Set(ctx context.Context, key string, value []byte, ttlMs int64)

	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string)
}

// ErrCacheUnavailable names a cache backend outage. Nothing in this package
// returns it: a backend that is down reports a miss, and GetOrCompute then
// falls through to fn.
var ErrCacheUnavailable = errors.New("cache unavailable")

// GetOrCompute returns the cached value for key if present and unexpired;
// otherwise it calls fn, stores the result, and returns it. Concurrent
// identical misses are deduplicated by a singleflight group owned by the
// caller-supplied group; see NewGroup.
func GetOrCompute(
	ctx context.Context,
	store Store,
	group *Group,
	key string,
	ttlMs int64,
	fn func() ([]byte, error),
) ([]byte, bool, error) {
	if entry, ok := store.Get(ctx, key); ok {
		return entry.Value, true, nil
	}

	value, err, _ := group.sf.Do(key, func() (any, error) {
		if entry, ok := store.Get(ctx, key); ok {
			return entry.Value, nil
		}

		computed, err := fn()
		if err != nil {
			return nil, err
		}

		store.Set(ctx, key, computed, ttlMs)

		return computed, nil
	})
	if err != nil {
		return nil, false, err
	}

	return value.([]byte), false, nil
}

// entryExpired reports whether an entry created at createdAt with the given
// TTL is no longer valid at now. It applies models.CacheEntry.Expired, which
// the backends call directly.
func entryExpired(createdAt time.Time, ttlMs int64, now time.Time) bool {
	return models.CacheEntry{CreatedAt: createdAt, TTLMs: ttlMs}.Expired(now)
}
