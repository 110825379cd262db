package ranking

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the ranking engine. Callers match with errors.Is.
var (
	ErrInvalidDecision    = errors.New("invalid decision")
	ErrNoActiveComparison = fmt.Errorf("%w: no active comparison", ErrInvalidDecision)
	ErrUnknownStrategy    = errors.New("unknown strategy")
	ErrDuplicateItem      = errors.New("duplicate item id")
	ErrReplayMismatch     = errors.New("decision log does not match session")
)
