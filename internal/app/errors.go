package service

import "errors"

// Sentinel error kinds returned by the Service. Callers match them with
// errors.Is; engine errors such as ranking.ErrInvalidDecision pass through
// wrapped.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrInvalidInput      = errors.New("invalid input")
	ErrSessionNotFound   = errors.New("session not found")
	ErrTooFewItems       = errors.New("too few items")
	ErrTooManyItems      = errors.New("too many items")
	ErrDuplicateItem     = errors.New("duplicate item id")
	ErrSessionIncomplete = errors.New("session incomplete")
	ErrBackpressure      = errors.New("decision queue full")
)
