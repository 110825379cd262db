package scenario

import "time"

// Option applies a configuration option to the InMemoryGenerator.
type Option func(*InMemoryGenerator)

// WithLatencyRange sets the simulated latency range. A zero range disables
// the delay.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(g *InMemoryGenerator) {
		if minLatency >= 0 && maxLatency >= minLatency {
			g.minLatency = minLatency
			g.maxLatency = maxLatency
		}
	}
}

// WithTemplates replaces the dilemma templates. Each template takes the two
// value names as %[1]s and %[2]s.
func WithTemplates(templates ...string) Option {
	return func(g *InMemoryGenerator) {
		if len(templates) > 0 {
			g.templates = append([]string(nil), templates...)
		}
	}
}
