package concurrency

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisAcquireScript is a Lua script implementing a simple
// counting semaphore over a Redis hash, adapted from the token-bucket
// script in core/pkg/kernel/limiter_redis.go: instead of a refilling
// rate, it tracks a fixed capacity of "slots" acquired/released by
// key, self-expiring so a crashed holder doesn't wedge the gate
// forever.
var redisAcquireScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])

local current = tonumber(redis.call("GET", key) or "0")
if current >= capacity then
    return 0
end

redis.call("INCR", key)
redis.call("EXPIRE", key, 300)
return 1
`)

// DistributedGate is a Redis-backed Limiter for multi-instance
// deployments sharing one timeline store, mirroring
// core/pkg/kernel.RedisLimiterStore's script-execution shape.
type DistributedGate struct {
	client   *redis.Client
	key      string
	capacity int
}

// NewDistributedGate builds a gate keyed by key, admitting at most
// capacity concurrent holders across all processes sharing client.
func NewDistributedGate(client *redis.Client, key string, capacity int) *DistributedGate {
	return &DistributedGate{client: client, key: key, capacity: capacity}
}

func (g *DistributedGate) Acquire(ctx context.Context) (bool, error) {
	res, err := redisAcquireScript.Run(ctx, g.client, []string{g.key}, g.capacity).Result()
	if err != nil {
		return false, fmt.Errorf("concurrency: redis acquire: %w", err)
	}
	allowed, _ := res.(int64)
	return allowed == 1, nil
}

func (g *DistributedGate) Release(ctx context.Context) {
	g.client.Decr(ctx, g.key)
}
