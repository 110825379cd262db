package service

import (
	"time"

	"github.com/okian/valuematrix/internal/adapters/repository"
	"github.com/okian/valuematrix/internal/domain/dedupe"
	"github.com/okian/valuematrix/internal/domain/ranking"
	"github.com/okian/valuematrix/internal/domain/scenario"
	"github.com/okian/valuematrix/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of persistence workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the decision queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWriteRetries sets the attempts per decision log write.
func WithWriteRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.writeRetries = n
		}
	}
}

// WithDedupeSize sets the size of the in-memory idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of session store shards.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithItemLimits bounds the number of values a session may rank.
func WithItemLimits(minItems, maxItems int) Option {
	return func(s *Service) {
		if minItems >= 2 && maxItems >= minItems {
			s.minItems = minItems
			s.maxItems = maxItems
		}
	}
}

// WithDefaultStrategy is used when a create request names no strategy.
func WithDefaultStrategy(kind ranking.Kind) Option {
	return func(s *Service) {
		if kind != "" {
			s.defaultStrategy = kind
		}
	}
}

// WithEngineOptions appends options applied to every strategy the service
// builds. Per-session seed and target are applied after them.
func WithEngineOptions(opts ...ranking.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithRefinement sets how many leaders enter the refinement stage and how
// many of those are the governing values.
func WithRefinement(size, finalTop int) Option {
	return func(s *Service) {
		if size >= 2 {
			s.refinementSize = size
		}
		if finalTop > 0 {
			s.finalTop = finalTop
		}
	}
}

// WithMaxTopLimit caps k on top-K queries.
func WithMaxTopLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxTopLimit = limit
		}
	}
}

// WithIdleTimeout sweeps sessions idle for longer than d. Zero disables the
// sweeper.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.idleTimeout = d
		}
	}
}

// WithSweepInterval sets how often idle sessions are swept.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithScenarioLatencyRange sets the simulated dilemma provider latency used
// by the default generator.
func WithScenarioLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.scenarioMinLatency = minLatency
			s.scenarioMaxLatency = maxLatency
		}
	}
}

// WithSessionStore replaces the default sharded session store.
func WithSessionStore(store repository.SessionStore) Option {
	return func(s *Service) {
		s.sessions = store
	}
}

// WithDecisionLog replaces the default in-memory decision log. The service
// closes it on Stop.
func WithDecisionLog(log repository.DecisionLog) Option {
	return func(s *Service) {
		s.decisionLog = log
	}
}

// WithDeduper replaces the default in-memory deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		s.deduper = d
	}
}

// WithScenarioGenerator replaces the default template generator.
func WithScenarioGenerator(g scenario.Generator) Option {
	return func(s *Service) {
		s.scenarios = g
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
