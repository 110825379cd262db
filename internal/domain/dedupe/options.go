package dedupe

import "time"

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of tracked keys. Zero or negative means
// unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// RedisOption applies a configuration option to the Redis deduper.
type RedisOption func(*redisDeduper)

// WithTTL sets how long a key is remembered in Redis.
func WithTTL(ttl time.Duration) RedisOption {
	return func(d *redisDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces keys in Redis.
func WithKeyPrefix(prefix string) RedisOption {
	return func(d *redisDeduper) {
		d.prefix = prefix
	}
}
