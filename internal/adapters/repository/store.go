// Package repository holds live sessions and the durable decision log.
package repository

import (
	"context"
	"time"

	"github.com/okian/valuematrix/internal/domain/model"
	"github.com/okian/valuematrix/internal/domain/session"
)

// SessionStore keeps live sessions by id.
type SessionStore interface {
	// Put adds a new session. Returns ErrExists if the id is taken.
	Put(ctx context.Context, s *session.Session) error
	// Get returns a session or ErrNotFound.
	Get(ctx context.Context, id string) (*session.Session, error)
	// Delete removes a session. Returns ErrNotFound if it is absent.
	Delete(ctx context.Context, id string) error
	// Sweep removes sessions idle longer than maxIdle at now and returns
	// their ids.
	Sweep(ctx context.Context, now time.Time, maxIdle time.Duration) []string
	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}

// DecisionLog durably records accepted decisions. Appending a decision
// whose (session, sequence) is already stored is a no-op.
type DecisionLog interface {
	Append(ctx context.Context, events ...model.DecisionEvent) error
	// List returns the decisions of a session ordered by sequence.
	List(ctx context.Context, sessionID string) ([]model.DecisionEvent, error)
	// Delete drops every decision of a session.
	Delete(ctx context.Context, sessionID string) error
	Close() error
}
