package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// incrementWindowScript bumps the counter and starts its TTL on the first hit
// of a window in one round trip.
// KEYS[1] = counter key, ARGV[1] = window in seconds. Returns {count, ttl}.
var incrementWindowScript = goredis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`)

// RateRepo stores fixed-window request counters.
type RateRepo struct {
	client *goredis.Client
}

func NewRateRepo(client *goredis.Client) *RateRepo {
	return &RateRepo{client: client}
}

// IncrementWindow counts one hit on key and returns the count in the current
// window and the time left until the window resets.
func (r *RateRepo) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("invalid rate window payload")
	}

	seconds := int64(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	res, err := incrementWindowScript.Run(ctx, r.client, []string{key}, seconds).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("increment rate key: %w", err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate script result: %v", res)
	}

	ttl := time.Duration(res[1]) * time.Second
	if ttl < 0 {
		ttl = 0
	}
	return res[0], ttl, nil
}
