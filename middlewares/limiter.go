package middlewares

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// LimitPolicy is a token bucket refilled at RPM per minute holding at most
// Burst tokens.
type LimitPolicy struct {
	RPM   int
	Burst int
}

func (p LimitPolicy) perSecond() float64 {
	r := float64(p.RPM) / 60.0
	if r <= 0 {
		r = 1
	}
	return r
}

func (p LimitPolicy) burst() int {
	if p.Burst <= 0 {
		return p.RPM
	}
	return p.Burst
}

// LimiterStore keeps one bucket per key.
type LimiterStore interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiterStore keeps buckets in process. Suitable for a single
// instance.
type MemoryLimiterStore struct {
	policy   LimitPolicy
	mu       sync.Mutex
	visitors map[string]*visitor
	idleTTL  time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMemoryLimiterStore(policy LimitPolicy) *MemoryLimiterStore {
	return &MemoryLimiterStore{
		policy:   policy,
		visitors: make(map[string]*visitor),
		idleTTL:  3 * time.Minute,
		now:      time.Now,
	}
}

func (s *MemoryLimiterStore) Allow(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.policy.perSecond()), s.policy.burst())}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}

// Cleanup drops buckets idle for longer than the TTL every minute until ctx
// is done.
func (s *MemoryLimiterStore) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryLimiterStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.idleTTL)
	for key, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(s.visitors, key)
		}
	}
}

// tokenBucketScript refills and consumes atomically.
// KEYS[1] = bucket key
// ARGV[1] = refill rate (tokens per second)
// ARGV[2] = capacity
// ARGV[3] = now (unix seconds, fractional)
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    tokens = math.min(capacity, tokens + elapsed * rate)
    last_refill = now
end

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, math.ceil(capacity / rate) + 1)

return allowed
`)

// RedisLimiterStore shares buckets between instances through Redis.
type RedisLimiterStore struct {
	client redis.Scripter
	policy LimitPolicy
	prefix string
	now    func() time.Time
}

func NewRedisLimiterStore(client redis.Scripter, policy LimitPolicy) *RedisLimiterStore {
	return &RedisLimiterStore{client: client, policy: policy, prefix: "nutrition:ratelimit:", now: time.Now}
}

func (s *RedisLimiterStore) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(s.now().UnixMicro()) / 1e6
	res, err := tokenBucketScript.Run(ctx, s.client, []string{s.prefix + key},
		s.policy.perSecond(), s.policy.burst(), now).Int64()
	if err != nil {
		return false, fmt.Errorf("redis limiter: %w", err)
	}
	return res == 1, nil
}
