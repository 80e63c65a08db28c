package toolenvelope

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// actorPacer enforces a per-actor requests-per-second cap ahead of the
// hard concurrency gate (§5), mirroring the teacher's per-IP
// GlobalRateLimiter but keyed by resolved actor instead of client IP.
type actorPacer struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*pacerVisitor
}

type pacerVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newActorPacer returns nil when rps is non-positive, disabling pacing
// entirely — a bare config.Config{} leaves it off; config.Load sets a
// default of 10 requests per second (burst 20) unless
// REPLAY_ACTOR_RATE_PER_SEC overrides it.
func newActorPacer(rps float64, burst int) *actorPacer {
	if rps <= 0 {
		return nil
	}
	return &actorPacer{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*pacerVisitor),
	}
}

// allow reports whether actor may proceed now, creating its limiter on
// first use.
func (p *actorPacer) allow(actor string) bool {
	p.mu.Lock()
	v, ok := p.visitors[actor]
	if !ok {
		v = &pacerVisitor{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.visitors[actor] = v
	}
	v.lastSeen = time.Now()
	limiter := v.limiter
	p.mu.Unlock()

	return limiter.Allow()
}

// evictStale drops visitor entries untouched for longer than ttl, so a
// long-lived envelope doesn't accumulate one limiter per actor forever.
func (p *actorPacer) evictStale(ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	for actor, v := range p.visitors {
		if now.Sub(v.lastSeen) > ttl {
			delete(p.visitors, actor)
		}
	}
}
