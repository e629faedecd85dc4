package models

import "time"

// CacheEntry is a tagged envelope stored by the Cache Store, keyed externally
// by a deterministic fingerprint of the normalized query.
type CacheEntry struct {
	Value     []byte
	CreatedAt time.Time
	TTLMs     int64
}

// Expired reports whether the entry is no longer valid at the given instant.
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.CreatedAt.Add(time.Duration(e.TTLMs) * time.Millisecond))
}
