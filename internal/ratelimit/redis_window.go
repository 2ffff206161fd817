package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkScript mirrors FixedWindow.Check atomically on the Redis server.
// It returns {allowed, count, ttl_ms}.
var checkScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local count = redis.call('GET', KEYS[1])
if not count then
  redis.call('SET', KEYS[1], 1, 'PX', window)
  return {1, 1, window}
end
count = tonumber(count)
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('SET', KEYS[1], 1, 'PX', window)
  return {1, 1, window}
end
if count >= max then
  return {0, count, ttl}
end
count = redis.call('INCR', KEYS[1])
return {1, count, ttl}
`)

// RedisFixedWindow enforces a Policy with counters shared by every process
// pointing at the same Redis. Window expiry is delegated to key TTLs, so no
// sweep is needed.
type RedisFixedWindow struct {
	client redis.Scripter
	policy Policy
	prefix string
}

// NewRedisFixedWindow constructs a shared limiter. scope namespaces the keys
// so several policies can share one Redis database. It panics if the policy
// is invalid.
func NewRedisFixedWindow(client redis.Scripter, scope string, policy Policy) *RedisFixedWindow {
	if err := policy.Validate(); err != nil {
		panic(err)
	}
	return &RedisFixedWindow{
		client: client,
		policy: policy,
		prefix: fmt.Sprintf("ratelimit:%s:", scope),
	}
}

// Policy returns the policy the limiter enforces.
func (l *RedisFixedWindow) Policy() Policy {
	return l.policy
}

// Check records a request for clientID. now is only used to derive ResetAt;
// expiry follows the Redis server clock.
func (l *RedisFixedWindow) Check(ctx context.Context, clientID string, now time.Time) (Decision, error) {
	key := l.prefix + normalizeClient(clientID)

	res, err := checkScript.Run(ctx, l.client, []string{key}, l.policy.MaxRequests, l.policy.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply %v", ErrStoreUnavailable, res)
	}

	allowed, count, ttl := res[0] == 1, int(res[1]), time.Duration(res[2])*time.Millisecond
	remaining := l.policy.MaxRequests - count
	if !allowed || remaining < 0 {
		remaining = 0
	}

	return Decision{Allowed: allowed, Remaining: remaining, ResetAt: now.Add(ttl)}, nil
}
