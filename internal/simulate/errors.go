package simulate

import "errors"

var (
	// ErrInvalidConfig is returned when simulation parameters are out of range.
	ErrInvalidConfig = errors.New("invalid simulation config")
	// ErrCoverage is returned when a full top-K listing does not hold every value exactly once.
	ErrCoverage = errors.New("ranking does not cover every value")
	// ErrUnexpectedStatus is returned when the remote service answers with an unexpected HTTP status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)
