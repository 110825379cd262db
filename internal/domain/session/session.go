// Package session wraps a ranking strategy with the identity and lifecycle
// data a host needs to serve it.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/valuematrix/internal/domain/ranking"
)

// Stage is the phase of the discovery flow a session belongs to.
type Stage string

const (
	// StageRanking is the initial ranking over the selected values.
	StageRanking Stage = "ranking"
	// StageRefinement re-ranks the leaders of a finished ranking session.
	StageRefinement Stage = "refinement"
)

// Session owns one strategy. All access to the strategy goes through Do,
// which serializes callers.
type Session struct {
	ID        string
	Kind      ranking.Kind
	Stage     Stage
	ParentID  string
	Seed      int64
	CreatedAt time.Time

	mu         sync.Mutex
	engine     ranking.Strategy
	lastActive atomic.Int64
	now        func() time.Time
}

// New creates a session around engine.
func New(id string, engine ranking.Strategy, opts ...Option) *Session {
	s := &Session{
		ID:     id,
		Kind:   engine.Kind(),
		Stage:  StageRanking,
		engine: engine,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.CreatedAt = s.now()
	s.lastActive.Store(s.CreatedAt.UnixNano())
	return s
}

// Do runs fn with exclusive access to the strategy and marks the session
// active.
func (s *Session) Do(fn func(ranking.Strategy) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return fn(s.engine)
}

func (s *Session) touch() {
	s.lastActive.Store(s.now().UnixNano())
}

// LastActive is the time of the most recent Do call.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// IdleFor reports how long the session has been idle at now.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActive())
}
