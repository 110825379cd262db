package simulate

import (
	"fmt"
	"time"

	"github.com/okian/valuematrix/internal/domain/ranking"
)

// Default simulation parameters.
const (
	DefaultSessions    = 20
	DefaultItems       = 10
	DefaultNoise       = 0.1
	DefaultTopK        = 3
	DefaultConcurrency = 8
	DefaultTimeout     = 10 * time.Second
)

// Config holds the parameters of one simulation run.
type Config struct {
	BaseURL     string         // remote service; empty runs in process
	Sessions    int            // sessions per strategy
	Items       int            // values per session
	Noise       float64        // probability a respondent flips an answer
	Strategies  []ranking.Kind // strategies to compare
	Seed        int64          // base seed for truth, respondents and engines
	TopK        int            // size of the leader set scored against the truth
	Concurrency int            // sessions running at once
	Timeout     time.Duration  // HTTP request timeout
	Verbose     bool
}

// DefaultConfig returns a config comparing every strategy.
func DefaultConfig() Config {
	return Config{
		Sessions:    DefaultSessions,
		Items:       DefaultItems,
		Noise:       DefaultNoise,
		Strategies:  ranking.Kinds(),
		Seed:        1,
		TopK:        DefaultTopK,
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
	}
}

// Validate reports the first out of range parameter.
func (c Config) Validate() error {
	switch {
	case c.Sessions < 1:
		return fmt.Errorf("%w: sessions must be positive", ErrInvalidConfig)
	case c.Items < 2:
		return fmt.Errorf("%w: items must be at least 2", ErrInvalidConfig)
	case c.Noise < 0 || c.Noise > 1:
		return fmt.Errorf("%w: noise must be within [0,1]", ErrInvalidConfig)
	case len(c.Strategies) == 0:
		return fmt.Errorf("%w: no strategies", ErrInvalidConfig)
	case c.TopK < 1 || c.TopK > c.Items:
		return fmt.Errorf("%w: k must be within [1,%d]", ErrInvalidConfig, c.Items)
	case c.Concurrency < 1:
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidConfig)
	}
	return nil
}
