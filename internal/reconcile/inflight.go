package reconcile

import (
	"errors"
	"sync"
)

// ErrOperationInFlight is returned when an intent targets an entity
// that already has a mutation in flight. The UI keeps the trigger
// disabled while an operation runs; the guard backs that discipline up
// instead of letting duplicate mutations race.
var ErrOperationInFlight = errors.New("an operation is already in flight for this entity")

// guard tracks at-most-one in-flight mutation per entity key.
type guard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newGuard() *guard {
	return &guard{busy: make(map[string]struct{})}
}

// acquire reserves the key. Returns false if it is already held.
func (g *guard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.busy[key]; held {
		return false
	}
	g.busy[key] = struct{}{}
	return true
}

// release frees the key.
func (g *guard) release(key string) {
	g.mu.Lock()
	delete(g.busy, key)
	g.mu.Unlock()
}
