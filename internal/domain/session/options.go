package session

import "time"

// Option applies a configuration option to a Session.
type Option func(*Session)

// WithStage sets the session stage.
func WithStage(stage Stage) Option {
	return func(s *Session) {
		s.Stage = stage
	}
}

// WithParent links a refinement session to the session it refines.
func WithParent(parentID string) Option {
	return func(s *Session) {
		s.ParentID = parentID
	}
}

// WithSeed records the seed the strategy was built with.
func WithSeed(seed int64) Option {
	return func(s *Session) {
		s.Seed = seed
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}
