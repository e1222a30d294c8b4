package operation

import (
	"sync"
	"sync/atomic"
)

// runtime is the live state of one executing operation. The processor is the
// only writer; trackers and pollers take copies under the same mutex, so a
// reader never observes a torn counter update.
type runtime struct {
	mu        sync.Mutex
	op        *Operation
	cancelled atomic.Bool
}

func newRuntime(op *Operation) *runtime {
	return &runtime{op: op}
}

// snapshot returns a copy of the operation taken under the lock.
func (r *runtime) snapshot() Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.op
}

// registry tracks live runtimes by operation id. Entries are removed once the
// operation reaches a terminal state and its document is persisted.
type registry struct {
	mu sync.RWMutex
	m  map[string]*runtime
}

func newRegistry() *registry {
	return &registry{m: make(map[string]*runtime)}
}

func (g *registry) add(id string, rt *runtime) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.m[id] = rt
}

func (g *registry) get(id string) (*runtime, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rt, ok := g.m[id]
	return rt, ok
}

func (g *registry) remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.m, id)
}
