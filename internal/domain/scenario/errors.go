package scenario

import "errors"

// ErrIncompletePair is returned when a request lacks one of the items.
var ErrIncompletePair = errors.New("scenario: both items are required")
