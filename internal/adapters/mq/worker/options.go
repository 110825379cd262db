package worker

import (
	"time"

	"github.com/okian/valuematrix/pkg/logger"
)

const (
	defaultRetries = 3
	defaultBackoff = 50 * time.Millisecond
)

// Option applies a configuration option to a Worker. Pool passes its options
// to every worker it creates.
type Option func(*Worker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRetries sets how many times a write is attempted.
func WithRetries(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.retries = n
		}
	}
}

// WithBackoff sets the base delay between attempts. It doubles per retry.
func WithBackoff(d time.Duration) Option {
	return func(w *Worker) {
		if d >= 0 {
			w.backoff = d
		}
	}
}
