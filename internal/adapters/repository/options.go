package repository

import "time"

const (
	defaultShardCount      = 8
	defaultMetricsInterval = 5 * time.Second
)

// Option applies a configuration option to the ShardedStore.
type Option func(*ShardedStore)

// WithShardCount sets the number of lock shards.
func WithShardCount(n int) Option {
	return func(s *ShardedStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMetricsUpdateInterval sets how often the active session gauge is
// refreshed by the background loop.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *ShardedStore) {
		if interval > 0 {
			s.metricsInterval = interval
		}
	}
}

// PostgresOption applies a configuration option to the PostgresDecisionLog.
type PostgresOption func(*PostgresDecisionLog)

// WithTable sets the table decisions are written to.
func WithTable(table string) PostgresOption {
	return func(l *PostgresDecisionLog) {
		if table != "" {
			l.table = table
		}
	}
}

// WithMaxOpenConns caps the connection pool.
func WithMaxOpenConns(n int) PostgresOption {
	return func(l *PostgresDecisionLog) {
		if n > 0 {
			l.maxOpenConns = n
		}
	}
}
