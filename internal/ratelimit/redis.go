package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript атомарно пополняет и расходует bucket.
// KEYS[1] - ключ bucket, ARGV: rate, capacity, cost, now (секунды с дробной частью).
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

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
if tokens >= cost then
    tokens = tokens - cost
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, 60)

return {allowed, tostring(tokens)}
`)

// RedisStore - token bucket в Redis, общий для всех экземпляров сервиса.
type RedisStore struct {
	client redis.UniversalClient
	policy Policy
	prefix string
}

// NewRedisStore создает хранилище поверх готового клиента.
func NewRedisStore(client redis.UniversalClient, policy Policy) *RedisStore {
	return &RedisStore{client: client, policy: policy, prefix: "sealed-tender:ratelimit:"}
}

// Ping проверяет доступность Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Allow(ctx context.Context, key string) (bool, error) {
	rps := s.policy.RPS
	if rps <= 0 {
		rps = 1
	}
	now := float64(time.Now().UnixMicro()) / 1e6

	res, err := tokenBucketScript.Run(ctx, s.client, []string{s.prefix + key}, rps, s.policy.Burst, 1, now).Result()
	if err != nil {
		return false, fmt.Errorf("redis limiter error: %w", err)
	}

	results, ok := res.([]interface{})
	if !ok || len(results) != 2 {
		return false, fmt.Errorf("invalid response from token bucket script")
	}
	allowed, _ := results[0].(int64)
	return allowed == 1, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
