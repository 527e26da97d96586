// pkg/correlation/registry.go
package correlation

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// Pending is the settlement pair for one in-flight invocation. Exactly one of
// the two continuations is expected to run, by whoever wins Consume.
type Pending struct {
	Resolve func(any)
	Reject  func(error)
}

// Registry maps correlation identifiers to pending settlement pairs. It is the
// single authoritative store linking the dispatch path to the completion path:
// callers keep only the identifier string, so results can only be delivered
// through Consume.
//
// Construct with New and inject explicitly; the mutation surface is exactly
// Register and Consume.
type Registry struct {
	mu      sync.Mutex
	pending map[string]Pending
}

func New() *Registry {
	return &Registry{pending: make(map[string]Pending)}
}

// idBytes gives a 128-bit identifier space; collisions against the live key
// set are theoretical, but we check anyway and regenerate.
const (
	idBytes       = 16
	maxIDAttempts = 32
)

// Register stores the settlement pair under a freshly generated identifier and
// returns it. Both continuations are required; a nil continuation is a
// programmer defect, not a runtime condition.
//
// The identifier is an opaque lowercase-hex string drawn from crypto/rand. It
// crosses the process boundary to the invocation engine, so it must not be
// guessable from sequence alone.
func (r *Registry) Register(resolve func(any), reject func(error)) string {
	if resolve == nil || reject == nil {
		panic("correlation: Register requires non-nil resolve and reject")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := newID()
		if _, taken := r.pending[id]; taken {
			continue
		}
		r.pending[id] = Pending{Resolve: resolve, Reject: reject}
		return id
	}
	// 32 consecutive collisions in a 128-bit space means the random source is
	// broken; continuing would risk cross-tenant delivery.
	panic(fmt.Sprintf("correlation: could not generate a unique identifier in %d attempts", maxIDAttempts))
}

// Consume atomically removes and returns the pending entry for id. The second
// return is false when no entry exists: a late or duplicate completion, or an
// identifier that was never issued. That is a normal outcome, not an error.
//
// A given identifier is consumable at most once; racing consumers get exactly
// one winner.
func (r *Registry) Consume(id string) (Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[id]
	if !ok {
		return Pending{}, false
	}
	delete(r.pending, id)
	return p, true
}

// Len reports the number of outstanding entries. Observability only.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func newID() string {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("correlation: crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(b)
}
