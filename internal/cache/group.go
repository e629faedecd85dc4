package cache

import "golang.org/x/sync/singleflight"

// Group deduplicates concurrent GetOrCompute calls for the same key. It is
// an optimization only: correctness does not depend on it, since every
// backend still satisfies last-write-wins on its own.
type Group struct {
	sf singleflight.Group
}

// NewGroup returns a ready-to-use Group.
func NewGroup() *Group {
	return &Group{}
}
