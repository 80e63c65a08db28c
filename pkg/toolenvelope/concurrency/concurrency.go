// Package concurrency enforces the global concurrency gate (§4.H rule
// 4): at most max_concurrent_jobs tool requests run at once. The
// default Gate is an in-process mutex-guarded counter; DistributedGate
// backs the same interface with a Redis counting semaphore for fleets
// of multiple envelope processes sharing one store.
package concurrency

import (
	"context"
	"sync"
)

// Limiter gates concurrent tool executions. Acquire returns false
// (without error) when the limit is already reached; Release must be
// called exactly once per successful Acquire, including on the
// cancellation/timeout path, so a slot is never leaked (§5
// "a cancelled job releases the concurrency slot in the finally
// branch").
type Limiter interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context)
}

// Gate is the single-process limiter: a mutex-guarded counter,
// mirroring the fail-closed counter idiom in
// core/pkg/envelope.EnvelopeGate.
type Gate struct {
	mu       sync.Mutex
	capacity int
	inFlight int
}

// NewGate creates a Gate admitting at most capacity concurrent jobs.
func NewGate(capacity int) *Gate {
	return &Gate{capacity: capacity}
}

func (g *Gate) Acquire(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight >= g.capacity {
		return false, nil
	}
	g.inFlight++
	return true, nil
}

func (g *Gate) Release(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight > 0 {
		g.inFlight--
	}
}

// InFlight reports the current number of admitted jobs, for the
// status tool's in-flight job count (SPEC_FULL §12.1).
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}
