package orchestrator

import (
	"context"
	"sync"
)

// cancelRegistry tracks in-flight requests by caller-supplied id so they can
// be cancelled from another connection.
type cancelRegistry struct {
	mu sync.Mutex
	m  map[string]*cancelEntry
}

type cancelEntry struct {
	cancel context.CancelFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{m: make(map[string]*cancelEntry)}
}

// register derives a cancellable context keyed by id. The returned release
// must be called when the request finishes. An empty id is not tracked.
func (r *cancelRegistry) register(ctx context.Context, id string) (context.Context, func()) {
	if id == "" {
		return ctx, func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	e := &cancelEntry{cancel: cancel}

	r.mu.Lock()
	// A reused id replaces the old entry; the old request keeps running on
	// its own context and simply can no longer be cancelled by id.
	r.m[id] = e
	r.mu.Unlock()

	return ctx, func() {
		cancel()
		r.mu.Lock()
		if r.m[id] == e {
			delete(r.m, id)
		}
		r.mu.Unlock()
	}
}

// cancel stops the request registered under id. Unknown ids are a no-op and
// report false.
func (r *cancelRegistry) cancel(id string) bool {
	r.mu.Lock()
	e, ok := r.m[id]
	if ok {
		delete(r.m, id)
	}
	r.mu.Unlock()
	if ok {
		e.cancel()
	}
	return ok
}
