package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis client. The increment runs as a Lua
// script so the INCRBY and the first-touch EXPIRE are one atomic step on the
// server; client-side check-then-act would lose updates under concurrency.
type RedisStore struct {
	rdb    *redis.Client
	script *redis.Script
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		script: redis.NewScript(`
			local count = redis.call('INCRBY', KEYS[1], tonumber(ARGV[1]))
			local ttl_ms = tonumber(ARGV[2])
			if ttl_ms > 0 and redis.call('PTTL', KEYS[1]) < 0 then
				redis.call('PEXPIRE', KEYS[1], ttl_ms)
			end
			return count
		`),
	}
}

func (s *RedisStore) IncrWindow(ctx context.Context, key string, n int64, ttl time.Duration) (int64, error) {
	res, err := s.script.Run(ctx, s.rdb, []string{key}, n, ttl.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	return scriptCount(res)
}

// scriptCount validates the increment script's reply. Anything but an
// integer is surfaced as an error; a silent zero would read as "under
// limit" and switch the rate limiter off without a trace.
func scriptCount(res any) (int64, error) {
	count, ok := res.(int64)
	if !ok {
		return 0, fmt.Errorf("counter: unexpected script result %T", res)
	}
	return count, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if d < 0 { // -1 no expiry, -2 missing key
		return 0, nil
	}
	return d, nil
}
