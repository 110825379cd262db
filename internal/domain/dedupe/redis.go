package dedupe

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisTTL    = 24 * time.Hour
	defaultRedisPrefix = "values:decision:"
	reserveAttempts    = 3
)

// redisDeduper shares idempotency keys between processes through Redis.
type redisDeduper struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	size   atomic.Int64
}

// NewRedisDeduper creates a deduper backed by client.
func NewRedisDeduper(client *redis.Client, opts ...RedisOption) Deduper {
	d := &redisDeduper{
		client: client,
		ttl:    defaultRedisTTL,
		prefix: defaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Reserve stores sequence under key with SETNX. A key that expires between
// the SETNX and the read of its value is reserved again.
func (d *redisDeduper) Reserve(ctx context.Context, key string, sequence int) (int, bool, error) {
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		ok, err := d.client.SetNX(ctx, d.prefix+key, sequence, d.ttl).Result()
		if err != nil {
			return 0, false, fmt.Errorf("dedupe: set %q: %w", key, err)
		}
		if ok {
			d.size.Add(1)
			return sequence, false, nil
		}
		prior, err := d.client.Get(ctx, d.prefix+key).Int()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("dedupe: get %q: %w", key, err)
		}
		return prior, true, nil
	}
	return 0, false, fmt.Errorf("dedupe: reserve %q: key kept expiring", key)
}

func (d *redisDeduper) Unrecord(ctx context.Context, key string) error {
	n, err := d.client.Del(ctx, d.prefix+key).Result()
	if err != nil {
		return fmt.Errorf("dedupe: delete %q: %w", key, err)
	}
	d.size.Add(-n)
	return nil
}

// Size counts keys recorded by this process that have not been unrecorded.
// Expired keys are not subtracted.
func (d *redisDeduper) Size() int64 {
	return d.size.Load()
}

// Ping checks that Redis is reachable.
func (d *redisDeduper) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("dedupe: ping: %w", err)
	}
	return nil
}
