// Package evalrun tracks in-flight evaluator runs so WebSocket subscribers on
// /ws/eval can be told whether the run they're watching is still active.
package evalrun

import (
	"context"
	"sync"
)

// Registry tracks the set of evaluation runs currently executing.
type Registry struct {
	mu     sync.Mutex
	active map[string]bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]bool)}
}

// Start marks runID as active.
func (r *Registry) Start(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active[runID] = true
}

// Finish marks runID as no longer active.
func (r *Registry) Finish(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.active, runID)
}

// IsRunActive reports whether runID is currently executing. It implements
// ws.RunValidator; a run that was never started or has already finished is
// reported inactive rather than erroring, since both mean the same thing to
// a subscriber: no more progress events are coming.
func (r *Registry) IsRunActive(_ context.Context, runID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active[runID], nil
}
