// Package config defines the service configuration and its loading hooks.
//
// Values are layered: defaults from New, then an optional YAML file, then
// VALUES_ prefixed environment variables.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/valuematrix/internal/domain/ranking"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the decision persistence queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of persistence workers.
	WorkerCount int `koanf:"worker_count"`
	// WriteRetries is the number of attempts per decision log write.
	WriteRetries int `koanf:"write_retries"`

	// DedupeSize bounds the in-memory idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`
	// ShardCount configures the number of session store shards.
	ShardCount int `koanf:"shard_count"`
	// SessionIdleTimeoutSec sweeps sessions idle for longer than this.
	SessionIdleTimeoutSec int `koanf:"session_idle_timeout_sec"`

	// MinItems and MaxItems bound the number of values per session.
	MinItems int `koanf:"min_items"`
	MaxItems int `koanf:"max_items"`

	// DefaultStrategy is used when a create request names none.
	DefaultStrategy string `koanf:"default_strategy"`

	MaxTargetComparisons int     `koanf:"max_target_comparisons"`
	EloKFactor           float64 `koanf:"elo_k_factor"`
	EloInitialRating     float64 `koanf:"elo_initial_rating"`

	TieBreakCutoff    int `koanf:"tie_break_cutoff"`
	MaxTieBreakRounds int `koanf:"max_tie_break_rounds"`

	// RefinementSize is how many top values enter the refinement stage,
	// FinalTop how many of those are reported as governing values.
	RefinementSize int `koanf:"refinement_size"`
	FinalTop       int `koanf:"final_top"`

	// MaxTopLimit caps GET /sessions/{id}/top?k.
	MaxTopLimit int `koanf:"max_top_limit"`

	// ScenarioLatencyMinMS and ScenarioLatencyMaxMS bound the simulated
	// dilemma provider latency.
	ScenarioLatencyMinMS int `koanf:"scenario_latency_min_ms"`
	ScenarioLatencyMaxMS int `koanf:"scenario_latency_max_ms"`

	// DecisionLogDSN selects the Postgres decision log when set.
	DecisionLogDSN string `koanf:"decision_log_dsn"`
	// RedisAddr selects the Redis deduper when set.
	RedisAddr string `koanf:"redis_addr"`

	// CORSAllowedOrigins enables CORS for the listed origins.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// MetricsNamespace and MetricsSubsystem prefix every exported metric.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
}

// New creates a Config populated with defaults. Context is accepted first to
// follow the project convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		QueueSize:             10_000,
		WorkerCount:           4,
		WriteRetries:          3,
		DedupeSize:            100_000,
		ShardCount:            8,
		SessionIdleTimeoutSec: 3600,
		MinItems:              5,
		MaxItems:              50,
		DefaultStrategy:       string(ranking.KindMerge),
		MaxTargetComparisons:  150,
		EloKFactor:            32,
		EloInitialRating:      1000,
		TieBreakCutoff:        10,
		MaxTieBreakRounds:     5,
		RefinementSize:        10,
		FinalTop:              3,
		MaxTopLimit:           50,
		ScenarioLatencyMinMS:  20,
		ScenarioLatencyMaxMS:  60,
		MetricsNamespace:      "values",
		MetricsSubsystem:      "ranking",
	}
}

// Validate reports the first rule the configuration breaks.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MinItems < 2:
		return fmt.Errorf("%w: min_items must be at least 2, got %d", ErrInvalidConfig, c.MinItems)
	case c.MaxItems < c.MinItems:
		return fmt.Errorf("%w: max_items %d is below min_items %d", ErrInvalidConfig, c.MaxItems, c.MinItems)
	case c.ScenarioLatencyMaxMS < c.ScenarioLatencyMinMS:
		return fmt.Errorf("%w: scenario latency range is inverted", ErrInvalidConfig)
	}
	if _, err := ranking.ParseKind(c.DefaultStrategy); err != nil {
		return fmt.Errorf("%w: default_strategy: %w", ErrInvalidConfig, err)
	}
	return nil
}

// IdleTimeout returns the session idle timeout as a duration. Zero or
// negative values disable sweeping.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutSec) * time.Second
}

// ScenarioLatency returns the simulated provider latency bounds.
func (c *Config) ScenarioLatency() (time.Duration, time.Duration) {
	return time.Duration(c.ScenarioLatencyMinMS) * time.Millisecond,
		time.Duration(c.ScenarioLatencyMaxMS) * time.Millisecond
}
